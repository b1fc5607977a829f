package multidomain

import (
	"context"
)

// Mapping sources recorded on DomainMapping.Source.
const (
	SourceConfig   = "config"
	SourceSettings = "settings"
)

// DomainMapping ties a content folder to the external domain serving it.
type DomainMapping struct {
	Folder    string
	Domain    string
	ErrorPage Page // nil when not configured or not resolvable
	Source    string
}

// ErrorIdentifier is the content identifier rendered when a page inside the
// mapping's folder cannot be found.
func (m DomainMapping) ErrorIdentifier() string {
	slug := "error"
	if m.ErrorPage != nil {
		slug = m.ErrorPage.Slug()
	}
	return m.Folder + "/" + slug
}

// Registry is the ordered list of mappings used for a single request.
type Registry []DomainMapping

// Folders returns the folder names in registry order.
func (r Registry) Folders() []string {
	folders := make([]string, 0, len(r))
	for _, m := range r {
		folders = append(folders, m.Folder)
	}
	return folders
}

// Load builds the registry from the deploy configuration, or from the site
// settings when the configuration lists no sites at all. The two sources are
// never merged. A settings read error is returned alongside the (empty)
// registry so the caller can log it; the registry is usable either way.
func Load(ctx context.Context, cfg ConfigProvider, settings SettingsSource, pages PageResolver) (Registry, error) {
	if cfg != nil {
		if sites := cfg.Sites(); len(sites) > 0 {
			return mapEntries(ctx, sites, SourceConfig, pages), nil
		}
	}

	if settings == nil {
		return Registry{}, nil
	}
	entries, err := settings.Multidomains(ctx)
	if err != nil {
		return Registry{}, err
	}
	if len(entries) == 0 {
		return Registry{}, nil
	}
	return mapEntries(ctx, entries, SourceSettings, pages), nil
}

func mapEntries(ctx context.Context, entries []Entry, source string, pages PageResolver) Registry {
	reg := make(Registry, 0, len(entries))
	for _, e := range entries {
		m := DomainMapping{
			Folder: e.Folder,
			Domain: e.Domain,
			Source: source,
		}
		if e.Error != "" && pages != nil {
			m.ErrorPage = pages.ResolvePageReference(ctx, e.Error)
		}
		reg = append(reg, m)
	}
	return reg
}
