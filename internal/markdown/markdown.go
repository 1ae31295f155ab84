// Package markdown extracts display metadata from customization documents.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Title returns the text of the first non-empty heading in a markdown
// document, skipping any leading YAML frontmatter. Documents without a
// heading yield "".
func Title(content []byte) string {
	body := stripFrontmatter(string(content))

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader([]byte(body)))

	title := ""
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if textNode, ok := child.(*ast.Text); ok {
				b.Write(textNode.Segment.Value([]byte(body)))
			}
		}
		title = strings.TrimSpace(b.String())
		if title != "" {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return title
}

// Description returns the description field of a document's YAML
// frontmatter, or "" when absent or unparseable.
func Description(content []byte) string {
	raw, ok := frontmatterBlock(string(content))
	if !ok {
		return ""
	}

	var data struct {
		Description string `yaml:"description"`
	}
	if err := yaml.Unmarshal([]byte(raw), &data); err != nil {
		return ""
	}
	return strings.TrimSpace(data.Description)
}

// Summary prefers the frontmatter description and falls back to the first
// heading text.
func Summary(content []byte) string {
	if desc := Description(content); desc != "" {
		return desc
	}
	return Title(content)
}

// frontmatterBlock returns the YAML between the leading --- fences.
// Frontmatter is only recognized when the first line is exactly ---.
func frontmatterBlock(content string) (string, bool) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), true
		}
	}
	return "", false
}

func stripFrontmatter(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return content
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return content
}
