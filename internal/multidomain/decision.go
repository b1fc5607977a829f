package multidomain

import "strings"

// Kind is the routing case chosen for a request.
type Kind int

const (
	// KindDefault resolves the path without any multidomain handling.
	KindDefault Kind = iota
	// KindRedirect corrects a visible URL that leaked a folder name.
	KindRedirect
	// KindInternal serves a mapped domain from its folder.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindRedirect:
		return "redirect"
	case KindInternal:
		return "internal"
	default:
		return "default"
	}
}

// MarshalText lets decisions be encoded with readable kinds.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Decision is the outcome of classifying a request.
type Decision struct {
	Kind       Kind           `json:"kind"`
	Location   string         `json:"location,omitempty"`
	Identifier string         `json:"identifier,omitempty"`
	Folder     string         `json:"folder,omitempty"`
	Mapping    *DomainMapping `json:"-"`
}

// Classify decides how a request for host and path is served. path is the
// request path without its leading slash.
//
// The cases are checked in order: a path starting with any mapped folder is
// redirected, a host containing a mapped folder is served internally, and
// everything else falls back to default resolution.
func Classify(host, path string, registry Registry) Decision {
	start := firstSegment(path)

	for i := range registry {
		m := &registry[i]
		if start != m.Folder {
			continue
		}
		target := strings.TrimSuffix(path, "/")
		target = RemoveFirstFolderOccurrence(target, m.Folder)
		return Decision{
			Kind:     KindRedirect,
			Location: m.Domain + target,
			Folder:   m.Folder,
			Mapping:  m,
		}
	}

	for i := range registry {
		m := &registry[i]
		if !strings.Contains(host, m.Folder) {
			continue
		}
		return Decision{
			Kind:       KindInternal,
			Identifier: m.Folder + "/" + path,
			Folder:     m.Folder,
			Mapping:    m,
		}
	}

	id := path
	if id == "" {
		id = "home"
	}
	return Decision{Kind: KindDefault, Identifier: id}
}
