// Package markdown reads and writes article files: YAML frontmatter followed by
// a Markdown body. It also derives titles and digests from generated text and
// renders previews.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var headingRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+?)\s*#*\s*$`)

// Frontmatter is the metadata block of an article file.
type Frontmatter struct {
	ID              string     `yaml:"id"`
	Owner           string     `yaml:"owner"`
	Status          string     `yaml:"status"`
	Title           string     `yaml:"title"`
	MetaDescription string     `yaml:"meta_description,omitempty"`
	Tags            []string   `yaml:"tags,omitempty"`
	FeaturedImage   string     `yaml:"featured_image,omitempty"`
	CreatedAt       time.Time  `yaml:"created_at"`
	PublishedAt     *time.Time `yaml:"published_at,omitempty"`
}

// Document is a parsed article file.
type Document struct {
	Frontmatter *Frontmatter
	Body        string
	Title       string
	Headings    []Heading
}

// Heading is one ATX heading of the body.
type Heading struct {
	Level int
	Text  string
}

// Parse splits data into frontmatter and body. Files without a frontmatter
// block, or with one that is not valid YAML, are returned as body only.
func Parse(data []byte) (*Document, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		Frontmatter: fm,
		Body:        body,
		Headings:    Headings(body),
	}
	if fm != nil && fm.Title != "" {
		doc.Title = fm.Title
	} else {
		doc.Title = Title(body)
	}
	return doc, nil
}

// Compose renders fm and body back into the on-disk format.
func Compose(fm Frontmatter, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("markdown: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("markdown: encode frontmatter: %w", err)
	}
	buf.WriteString(delim + "\n\n")
	buf.WriteString(strings.TrimSpace(body))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func splitFrontmatter(data []byte) (*Frontmatter, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm Frontmatter
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data), nil
	}
	return &fm, body, nil
}

// Title returns the text of the first level-one heading, or "".
func Title(body string) string {
	for _, h := range Headings(body) {
		if h.Level == 1 {
			return h.Text
		}
	}
	return ""
}

// Headings lists the ATX headings of body in order. Lines inside fenced code
// blocks are skipped.
func Headings(body string) []Heading {
	var out []Heading
	inFence := false
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := headingRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		out = append(out, Heading{Level: len(m[1]), Text: m[2]})
	}
	return out
}

// Digest returns the first prose paragraph of body, flattened to a single line
// and stripped of emphasis markers. Headings, list items and rules are skipped.
func Digest(body string) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(parts) > 0 {
				break
			}
			continue
		}
		if isStructural(trimmed) {
			if len(parts) > 0 {
				break
			}
			continue
		}
		parts = append(parts, trimmed)
	}
	return strings.Trim(strings.Join(parts, " "), "*_ ")
}

func isStructural(line string) bool {
	switch {
	case strings.HasPrefix(line, "#"),
		strings.HasPrefix(line, "- "),
		strings.HasPrefix(line, "* "),
		strings.HasPrefix(line, ">"),
		strings.HasPrefix(line, "```"),
		line == delim:
		return true
	}
	return false
}
