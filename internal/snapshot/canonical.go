package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// CanonicalJSON produces a deterministic JSON encoding following JCS-like rules:
// - Keys sorted lexicographically
// - No insignificant whitespace
// - No HTML escaping
// - Empty optional fields omitted
func CanonicalJSON(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(buildOrderedSnapshot(s)); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Remove trailing newline added by Encode
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ComputeSnapshotRev hashes the snapshot content. Meta fields that change
// on every export (generated_at, snapshot_rev) are left out, so the rev
// only changes when the store does. Returns "sha256:<hex>".
func ComputeSnapshotRev(s *Snapshot) (string, error) {
	data, err := canonicalContent(s)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256([]byte(data))
	return "sha256:" + hex.EncodeToString(hash[:]), nil
}

// orderedMap is a slice of key-value pairs that marshals as a JSON object
// with keys in the order they appear in the slice.
type orderedMap []keyValue

type keyValue struct {
	Key   string
	Value interface{}
}

func (om orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, kv := range om {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyJSON, err := marshalNoEscape(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		valJSON, err := marshalNoEscape(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// buildOrderedSnapshot creates an ordered map structure for canonical JSON.
// Top-level order: levels, meta, scores, settings, users.
func buildOrderedSnapshot(s *Snapshot) orderedMap {
	result := make(orderedMap, 0, 5)

	if len(s.Levels) > 0 {
		result = append(result, keyValue{"levels", orderedByID(s.Levels, buildOrderedLevel)})
	}
	result = append(result, keyValue{"meta", buildOrderedMeta(&s.Meta)})
	if len(s.Scores) > 0 {
		result = append(result, keyValue{"scores", orderedByID(s.Scores, buildOrderedScore)})
	}
	if len(s.Settings) > 0 {
		result = append(result, keyValue{"settings", orderedByID(s.Settings, buildOrderedSettings)})
	}
	if len(s.Users) > 0 {
		result = append(result, keyValue{"users", orderedByID(s.Users, buildOrderedUser)})
	}

	return result
}

// orderedByID emits entries sorted by id
func orderedByID[T any](entries map[string]T, build func(*T) orderedMap) orderedMap {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make(orderedMap, 0, len(entries))
	for _, id := range ids {
		entry := entries[id]
		result = append(result, keyValue{id, build(&entry)})
	}
	return result
}

func buildOrderedMeta(m *Meta) orderedMap {
	result := make(orderedMap, 0, 3)

	// Fields in lexicographic order
	if m.GeneratedAt != "" {
		result = append(result, keyValue{"generated_at", m.GeneratedAt})
	}
	result = append(result, keyValue{"schema_version", m.SchemaVersion})
	if m.SnapshotRev != "" {
		result = append(result, keyValue{"snapshot_rev", m.SnapshotRev})
	}

	return result
}

func buildOrderedLevel(l *LevelEntry) orderedMap {
	result := make(orderedMap, 0, 7)

	result = append(result, keyValue{"author_id", l.AuthorID})
	if l.AuthorName != "" {
		result = append(result, keyValue{"author_name", l.AuthorName})
	}
	if l.CreatedAt != "" {
		result = append(result, keyValue{"created_at", l.CreatedAt})
	}
	if l.Data != "" {
		result = append(result, keyValue{"data", l.Data})
	}
	if l.IsPublic != nil {
		result = append(result, keyValue{"is_public", *l.IsPublic})
	}
	if l.LastModified != "" {
		result = append(result, keyValue{"last_modified", l.LastModified})
	}
	result = append(result, keyValue{"title", l.Title})

	return result
}

func buildOrderedUser(u *UserEntry) orderedMap {
	result := make(orderedMap, 0, 4)

	if u.CreatedAt != "" {
		result = append(result, keyValue{"created_at", u.CreatedAt})
	}
	if u.DisplayName != "" {
		result = append(result, keyValue{"display_name", u.DisplayName})
	}
	if u.Email != "" {
		result = append(result, keyValue{"email", u.Email})
	}
	result = append(result, keyValue{"username", u.Username})

	return result
}

func buildOrderedScore(s *ScoreEntry) orderedMap {
	result := make(orderedMap, 0, 4)

	if s.CreatedAt != "" {
		result = append(result, keyValue{"created_at", s.CreatedAt})
	}
	result = append(result, keyValue{"level_id", s.LevelID})
	result = append(result, keyValue{"strokes", s.Strokes})
	result = append(result, keyValue{"user_id", s.UserID})

	return result
}

func buildOrderedSettings(s *SettingsEntry) orderedMap {
	result := make(orderedMap, 0, 2)

	result = append(result, keyValue{"data", s.Data})
	if s.UpdatedAt != "" {
		result = append(result, keyValue{"updated_at", s.UpdatedAt})
	}

	return result
}
