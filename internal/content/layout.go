package content

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

const templateDir = "_templates"

const defaultLayout = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
<link rel="canonical" href="{{.URL}}">
<script type="application/ld+json">{{.JSONLD}}</script>
</head>
<body>
{{- if or .Parent .Children}}
<nav>
{{- if .Parent}}
<a href="{{.Parent.URL}}" rel="up">{{.Parent.Title}}</a>
{{- end}}
{{- if .Children}}
<ul>
{{- range .Children}}
<li><a href="{{.URL}}">{{.Title}}</a></li>
{{- end}}
</ul>
{{- end}}
</nav>
{{- end}}
<main>
<h1>{{.Title}}</h1>
{{.Body}}
</main>
</body>
</html>
`

var defaultTemplate = template.Must(template.New("default").Parse(defaultLayout))

// pageData is what layouts are executed with
type pageData struct {
	Lang        string
	Title       string
	Description string
	URL         string
	Body        template.HTML
	JSONLD      template.JS
	Parent      *link
	Children    []link
}

type link struct {
	Title string
	URL   string
}

// layout returns the template named in a page's frontmatter, read from
// _templates/<name>.html under the content root, or the built-in layout.
func (r *Repository) layout(name string) (*template.Template, error) {
	if name == "" || name == "default" {
		return defaultTemplate, nil
	}
	if strings.ContainsAny(name, `/\.`) {
		return nil, fmt.Errorf("invalid template name %q", name)
	}

	file := filepath.Join(r.root, templateDir, name+".html")
	src, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		r.log.LogInfo(fmt.Sprintf("template %q not found, using default layout", name))
		return defaultTemplate, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template %q: %w", name, err)
	}

	tmpl, err := template.New(name).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
	}
	return tmpl, nil
}
