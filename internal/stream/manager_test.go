package stream

import (
	"strconv"
	"sync"
	"testing"

	"github.com/coder/websocket"
)

func activeConn(m *SessionManager, userID, sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[userID][sessionID]
}

func TestSessionManager_Register(t *testing.T) {
	sm := NewSessionManager()
	conn := &websocket.Conn{}

	sm.Register("user123", "tab-1", conn)

	if active := activeConn(sm, "user123", "tab-1"); active != conn {
		t.Errorf("Expected connection %v, got %v", conn, active)
	}
	if sm.Count() != 1 {
		t.Errorf("Expected 1 active connection, got %d", sm.Count())
	}
}

func TestSessionManager_Unregister(t *testing.T) {
	sm := NewSessionManager()
	conn := &websocket.Conn{}

	sm.Register("user123", "tab-1", conn)
	sm.Unregister("user123", "tab-1", conn)

	if active := activeConn(sm, "user123", "tab-1"); active != nil {
		t.Errorf("Expected nil connection, got %v", active)
	}
	if sm.Count() != 0 {
		t.Errorf("Expected no active connections, got %d", sm.Count())
	}
}

func TestSessionManager_UnregisterOtherTab(t *testing.T) {
	sm := NewSessionManager()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	sm.Register("user123", "tab-1", conn1)
	sm.Register("user123", "tab-2", conn2)
	sm.Unregister("user123", "tab-1", conn1)

	if active := activeConn(sm, "user123", "tab-2"); active != conn2 {
		t.Errorf("Expected connection %v, got %v", conn2, active)
	}
}

func TestSessionManager_UnregisterStaleConnIgnored(t *testing.T) {
	sm := NewSessionManager()
	current := &websocket.Conn{}
	stale := &websocket.Conn{}

	sm.Register("user123", "tab-1", current)
	sm.Unregister("user123", "tab-1", stale)

	if active := activeConn(sm, "user123", "tab-1"); active != current {
		t.Errorf("Stale unregister removed the active connection")
	}
}

func TestSessionManager_ConcurrentAccess(t *testing.T) {
	sm := NewSessionManager()
	userID := "concurrentUser"

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			sm.Register(userID, "tab-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			activeConn(sm, userID, "tab-"+strconv.Itoa(i))
		}
	}()
	wg.Wait()

	if sm.Count() != 1000 {
		t.Errorf("Expected 1000 connections, got %d", sm.Count())
	}
}
