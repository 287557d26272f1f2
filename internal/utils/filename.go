package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]+`)

// SafeFileName turns a document title into a file name with ext
func SafeFileName(title, ext string) string {
	name := strings.TrimSpace(unsafeChars.ReplaceAllString(title, "_"))
	name = strings.Trim(name, ". ")
	if name == "" {
		name = "document"
	}
	if len([]rune(name)) > 120 {
		name = string([]rune(name)[:120])
	}
	return name + ext
}

// UniqueName returns name, or name with " (n)" before the extension when
// name is already in used. The result is recorded in used.
func UniqueName(name string, used map[string]bool) string {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// ExtensionFor maps a mime type to a file extension
func ExtensionFor(mime string) string {
	switch {
	case strings.HasPrefix(mime, "application/pdf"):
		return ".pdf"
	case strings.HasPrefix(mime, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(mime, "image/png"):
		return ".png"
	case strings.HasPrefix(mime, "text/plain"):
		return ".txt"
	default:
		return ".bin"
	}
}

// ErrOutsideRoot is returned for paths that are absolute or climb out of
// their root
var ErrOutsideRoot = errors.New("path must be relative and stay inside its root")

// ResolveWithin joins rel onto root. An empty rel resolves to root itself.
func ResolveWithin(root, rel string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("%w: no root", ErrOutsideRoot)
	}
	if rel == "" {
		return filepath.Clean(root), nil
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	return filepath.Join(root, rel), nil
}
