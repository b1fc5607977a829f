package markdown

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// Frontmatter represents the YAML frontmatter of a page
type Frontmatter struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Lang        string `yaml:"lang,omitempty" json:"lang,omitempty"`
	Template    string `yaml:"template,omitempty" json:"template,omitempty"`
	Draft       bool   `yaml:"draft,omitempty" json:"draft,omitempty"`
}

// Document represents a parsed markdown page
type Document struct {
	Frontmatter Frontmatter
	Content     string // Raw markdown content
	HTML        string // Rendered and sanitized HTML
	FilePath    string // Path to the source file
}

var frontmatterRegex = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n?(.*)$`)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()), // We'll sanitize after
)

var policy = newPolicy()

var separatorRegex = regexp.MustCompile(`[-_]+`)

// ParseDocument parses a markdown file with optional YAML frontmatter
func ParseDocument(filePath string) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseDocumentFromBytes(content, filePath)
}

// ParseDocumentFromBytes parses markdown content. A page without frontmatter
// is titled after its file name.
func ParseDocumentFromBytes(content []byte, filePath string) (*Document, error) {
	var fm Frontmatter
	body := content

	if matches := frontmatterRegex.FindSubmatch(content); matches != nil {
		if err := yaml.Unmarshal(matches[1], &fm); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
		body = matches[2]
	}

	if fm.Title == "" {
		fm.Title = titleFromFilename(filePath)
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	return &Document{
		Frontmatter: fm,
		Content:     string(body),
		HTML:        policy.Sanitize(buf.String()),
		FilePath:    filePath,
	}, nil
}

// newPolicy builds the sanitizer applied to rendered page bodies
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)).OnElements("code", "pre", "div", "span")
	return p
}

// titleFromFilename turns "about-us.md" or "about-us/index.md" into "About us"
func titleFromFilename(filePath string) string {
	name := strings.TrimSuffix(filepath.Base(filePath), ".md")
	if name == "index" {
		name = filepath.Base(filepath.Dir(filePath))
	}
	name = strings.TrimSpace(separatorRegex.ReplaceAllString(name, " "))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// ToJSONLD describes the page as a schema.org WebPage. The context is inline
// so that normalization never has to fetch a remote document.
func (d *Document) ToJSONLD(pageURL string) map[string]interface{} {
	fm := d.Frontmatter

	jsonld := map[string]interface{}{
		"@context": map[string]interface{}{"@vocab": "https://schema.org/"},
		"@type":    "WebPage",
		"name":     fm.Title,
	}

	if fm.Description != "" {
		jsonld["description"] = fm.Description
	}

	if fm.Lang != "" {
		jsonld["inLanguage"] = fm.Lang
	}

	if pageURL != "" {
		jsonld["url"] = pageURL
		jsonld["@id"] = pageURL
	}

	return jsonld
}
