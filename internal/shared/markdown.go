package shared

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ashureev/storyscribe/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PreviewLength is the maximum number of runes in a story preview.
const PreviewLength = 200

var (
	markdown       = goldmark.New()
	hashtagPattern = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_-]{2,40})`)
)

// PlainText renders markdown source as a single line of readable text.
// Markup, raw HTML and link targets are dropped; code is kept verbatim.
func PlainText(src string) string {
	source := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
				b.WriteByte(' ')
			}
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(b.String()), " ")
}

// Preview truncates plain text to at most limit runes.
func Preview(plain string, limit int) string {
	if utf8.RuneCountInString(plain) <= limit {
		return plain
	}
	runes := []rune(plain)
	return strings.TrimSpace(string(runes[:limit]))
}

// Hashtags returns the distinct #tags in plain text, lower-cased, in order of appearance.
func Hashtags(plain string) []string {
	var tags []string
	seen := make(map[string]bool)
	for _, m := range hashtagPattern.FindAllStringSubmatch(plain, -1) {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// Summarize derives prompt-selection metadata from a stored story.
func Summarize(s domain.Story) domain.StoryMetadata {
	plain := PlainText(s.Content)
	return domain.StoryMetadata{
		StoryID:          s.ID,
		Title:            strings.TrimSpace(s.Title),
		ContentPreview:   Preview(plain, PreviewLength),
		CreatedAt:        s.CreatedAt,
		WordCount:        len(strings.Fields(plain)),
		CompletionStatus: domain.ClampCompletion(s.CompletionStatus),
		Themes:           Hashtags(plain),
	}
}

// SummarizeAll maps stories to metadata, preserving order.
func SummarizeAll(stories []domain.Story) []domain.StoryMetadata {
	out := make([]domain.StoryMetadata, 0, len(stories))
	for _, s := range stories {
		out = append(out, Summarize(s))
	}
	return out
}
