// Package keys derives canonical identity keys for store records.
//
// Keys are never stored. They are recomputed on every run from the record
// fields, so they must be stable under re-derivation and insensitive to
// letter case.
package keys

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/lherron/levelsweep/internal/domain"
)

// Separator joins the title and author parts of a level key
const Separator = "__"

// Fold normalises s for comparison: NFC, Unicode case folding, trimmed.
// For ASCII input this is the same as strings.ToLower.
func Fold(s string) string {
	return strings.TrimSpace(cases.Fold().String(norm.NFC.String(s)))
}

// Level builds the key for a title/author pair
func Level(title, authorID string) string {
	return Fold(title) + Separator + Fold(authorID)
}

// LevelKey builds the key for a stored level. A level with a blank title
// gets a key unique to its id so that untitled records never collide.
func LevelKey(l *domain.Level) string {
	if strings.TrimSpace(l.Title) == "" {
		return "untitled:" + l.ID
	}
	return Level(l.Title, l.AuthorID)
}

// UserKey builds the identity key for a user: the email when present,
// otherwise the username.
func UserKey(u *domain.User) string {
	if email := Fold(u.Email); email != "" {
		return "email:" + email
	}
	if name := Fold(u.Username); name != "" {
		return "name:" + name
	}
	return "id:" + u.ID
}

// TitleFromDocument returns the title a level document declares for itself:
// top-level "title" first, then "course.title". The second return is false
// when neither is a non-empty string.
func TitleFromDocument(data []byte) (string, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false
	}
	if s, ok := doc["title"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s), true
	}
	if course, ok := doc["course"].(map[string]interface{}); ok {
		if s, ok := course["title"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// TitleFromFilename strips the directory and extension from path
func TitleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Title resolves the title for an imported document, falling back to the
// filename so that every input maps to exactly one key.
func Title(data []byte, path string) string {
	if t, ok := TitleFromDocument(data); ok {
		return t
	}
	return TitleFromFilename(path)
}
