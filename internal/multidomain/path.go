package multidomain

import "strings"

// firstSegment returns the part of path before the first slash.
func firstSegment(path string) string {
	first, _, _ := strings.Cut(path, "/")
	return first
}

// RemoveFirstFolderOccurrence deletes the first occurrence of folder anywhere
// in path. It is not segment aware: with folder "alpha", "xalpha/alpha/a"
// becomes "x/alpha/a". Callers only invoke it after checking that the first
// segment equals folder, where the first occurrence is that segment.
func RemoveFirstFolderOccurrence(path, folder string) string {
	return strings.Replace(path, folder, "", 1)
}
