// Package multidomain routes requests for a single content installation that
// serves several external domains.
//
// Every domain is mapped to a top level content folder. The visible URL never
// contains that folder: a request whose path starts with a folder name is
// redirected to the folder's domain, a request whose host contains a folder
// name is served from that folder internally, and everything else falls back
// to plain content resolution.
//
// Rendered HTML for a mapped domain is passed through Rewrite, which turns
// folder prefixed URLs into root relative links (same folder) or absolute
// links on the owning domain (other folders). Rewriting is plain regular
// expression substitution over the markup, so text that merely contains
// "folder/" is rewritten too.
//
// The registry of mappings is loaded on every request, first from the deploy
// time configuration and, only when that is empty, from the site settings
// kept in the content tree. Nothing is cached between requests.
package multidomain
