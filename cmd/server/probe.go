package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/storyscribe/internal/probe"
	"github.com/spf13/cobra"
)

func newProbeCmd() *cobra.Command {
	var addr, service string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Query a running server's gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out, err := probe.Check(ctx, addr, service)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:9090", "gRPC health probe address")
	cmd.Flags().StringVar(&service, "service", probe.ServiceName, "Service name to check (empty for overall status)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Probe timeout")
	return cmd
}
