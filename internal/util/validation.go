package util

import (
	"path/filepath"
	"regexp"
)

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._ -]`)

// SanitizeFilename strips any directory components and characters that are
// unsafe in a scratch-directory path. Client-supplied names never decide where
// a file lands on disk.
func SanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean(name))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
