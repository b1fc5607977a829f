package multidomain

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Problem is one finding of Validate. Warnings describe entries that work
// but are likely to rewrite more than intended.
type Problem struct {
	Entry   int    `json:"entry"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}

func (p Problem) String() string {
	level := "error"
	if p.Warning {
		level = "warning"
	}
	return fmt.Sprintf("%s: entry %d: %s: %s", level, p.Entry, p.Field, p.Message)
}

// Validate applies the site settings schema to entries: domain is a required
// absolute URL without trailing slash, folder is required, has no slashes and
// is unique. Routing never rejects entries; this is for operators only.
func Validate(entries []Entry) []Problem {
	var problems []Problem
	add := func(i int, field, msg string, warning bool) {
		problems = append(problems, Problem{Entry: i, Field: field, Message: msg, Warning: warning})
	}

	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		switch {
		case e.Folder == "":
			add(i, "folder", "is required", false)
		case strings.Contains(e.Folder, "/"):
			add(i, "folder", "must not contain slashes", false)
		}
		if e.Folder != "" {
			if j, dup := seen[e.Folder]; dup {
				add(i, "folder", fmt.Sprintf("%q is already used by entry %d", e.Folder, j), false)
			} else {
				seen[e.Folder] = i
			}
		}

		if e.Domain == "" {
			add(i, "domain", "is required", false)
		} else if u, err := url.Parse(e.Domain); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(i, "domain", fmt.Sprintf("%q is not an absolute http(s) URL", e.Domain), false)
		} else if strings.HasSuffix(e.Domain, "/") {
			add(i, "domain", "must not end with a slash", false)
		}
	}

	for i, a := range entries {
		for j, b := range entries {
			if i == j || a.Folder == "" || b.Folder == "" || a.Folder == b.Folder {
				continue
			}
			if strings.Contains(b.Folder, a.Folder) {
				add(j, "folder", fmt.Sprintf("contains folder %q of entry %d; links may be rewritten twice", a.Folder, i), true)
			}
		}
	}
	return problems
}

// CheckErrorPages warns about error settings that pages cannot resolve.
// References are looked up from the content root, so a page inside the
// folder needs the folder prefix. Unresolved entries fall back to
// "<folder>/error" at runtime.
func CheckErrorPages(ctx context.Context, entries []Entry, pages PageResolver) []Problem {
	var problems []Problem
	for i, e := range entries {
		if e.Error == "" || pages.ResolvePageReference(ctx, e.Error) != nil {
			continue
		}
		fallback := DomainMapping{Folder: e.Folder}.ErrorIdentifier()
		problems = append(problems, Problem{
			Entry:   i,
			Field:   "error",
			Message: fmt.Sprintf("page %q not found; %q is used instead", e.Error, fallback),
			Warning: true,
		})
	}
	return problems
}

// HasErrors reports whether any problem is not a warning.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if !p.Warning {
			return true
		}
	}
	return false
}
