package multidomain

import (
	"regexp"
	"strings"
)

// rest of a URL after the folder, up to a quote or whitespace
const urlRest = `([^"'\s]*)`

// Rewrite replaces folder prefixed URLs in html. Links into currentFolder
// become root relative, links into any other mapped folder become absolute
// URLs on that folder's domain.
//
// Mappings are applied in registry order. For each mapping, absolute URLs
// (scheme://host/folder/rest) are rewritten first, then any remaining
// "folder/rest" substring. The second pass works on raw text and also hits
// unrelated text containing "folder/", and a path written as "/folder/x"
// becomes "//x" for the current folder.
func Rewrite(html, currentFolder string, registry Registry) string {
	for _, m := range registry {
		replacement := m.Domain
		if m.Folder == currentFolder {
			replacement = ""
		}
		// the replacement is literal text, not an expansion template
		literal := strings.ReplaceAll(replacement, "$", "$$")

		absolute, bare := folderPatterns(m.Folder)
		html = absolute.ReplaceAllString(html, literal+"/${2}")
		html = bare.ReplaceAllString(html, literal+"/${1}")
	}
	return html
}

func folderPatterns(folder string) (absolute, bare *regexp.Regexp) {
	quoted := regexp.QuoteMeta(folder)
	absolute = regexp.MustCompile(`(?i)(https?://[^/]+)/` + quoted + `/` + urlRest)
	bare = regexp.MustCompile(`(?i)` + quoted + `/` + urlRest)
	return absolute, bare
}
