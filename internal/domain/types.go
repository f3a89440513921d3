package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// Entity names a record collection in the store
type Entity string

const (
	EntityLevel    Entity = "level"
	EntityUser     Entity = "user"
	EntityScore    Entity = "score"
	EntitySettings Entity = "settings"
)

// Level represents a shared level record
type Level struct {
	ID           string          `json:"id" yaml:"id"`
	Title        string          `json:"title" yaml:"title"`
	AuthorID     string          `json:"author_id" yaml:"author_id"`
	AuthorName   string          `json:"author_name" yaml:"author_name"`
	Data         json.RawMessage `json:"data,omitempty" yaml:"-"`
	IsPublic     *bool           `json:"is_public,omitempty" yaml:"is_public,omitempty"` // nil when the flag was never written
	CreatedAt    time.Time       `json:"created_at" yaml:"created_at"`
	LastModified time.Time       `json:"last_modified" yaml:"last_modified"`
	Malformed    Malformed       `json:"-" yaml:"-"`
}

// Public reports whether the level is published. A missing flag counts as private.
func (l *Level) Public() bool {
	return l.IsPublic != nil && *l.IsPublic
}

// LevelPatch is a partial update of a level. Only non-nil fields are written.
// ID and CreatedAt are not patchable.
type LevelPatch struct {
	Title        *string          `json:"title,omitempty" yaml:"title,omitempty"`
	AuthorName   *string          `json:"author_name,omitempty" yaml:"author_name,omitempty"`
	Data         *json.RawMessage `json:"data,omitempty" yaml:"-"`
	IsPublic     *bool            `json:"is_public,omitempty" yaml:"is_public,omitempty"`
	LastModified *time.Time       `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p *LevelPatch) IsEmpty() bool {
	return p == nil || (p.Title == nil && p.AuthorName == nil && p.Data == nil && p.IsPublic == nil && p.LastModified == nil)
}

// Fields returns the patch as a column -> value map, in the shape the
// event log and the SQL builders consume.
func (p *LevelPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p == nil {
		return fields
	}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.AuthorName != nil {
		fields["author_name"] = *p.AuthorName
	}
	if p.Data != nil {
		fields["data"] = string(*p.Data)
	}
	if p.IsPublic != nil {
		fields["is_public"] = *p.IsPublic
	}
	if p.LastModified != nil {
		fields["last_modified"] = FormatTime(*p.LastModified)
	}
	return fields
}

// Apply returns a copy of level with the patch applied
func (p *LevelPatch) Apply(level Level) Level {
	if p == nil {
		return level
	}
	if p.Title != nil {
		level.Title = *p.Title
	}
	if p.AuthorName != nil {
		level.AuthorName = *p.AuthorName
	}
	if p.Data != nil {
		level.Data = append(json.RawMessage(nil), (*p.Data)...)
	}
	if p.IsPublic != nil {
		v := *p.IsPublic
		level.IsPublic = &v
	}
	if p.LastModified != nil {
		level.LastModified = *p.LastModified
	}
	return level
}

// User represents a player account
type User struct {
	ID          string    `json:"id" yaml:"id"`
	Username    string    `json:"username" yaml:"username"`
	DisplayName string    `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Email       string    `json:"email,omitempty" yaml:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Malformed   Malformed `json:"-" yaml:"-"`
}

// UserPatch is a partial update of a user's identity fields
type UserPatch struct {
	Username    *string `json:"username,omitempty" yaml:"username,omitempty"`
	DisplayName *string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p *UserPatch) IsEmpty() bool {
	return p == nil || (p.Username == nil && p.DisplayName == nil)
}

// Score is a player's result on a level. Fewer strokes is better.
type Score struct {
	ID        string    `json:"id" yaml:"id"`
	LevelID   string    `json:"level_id" yaml:"level_id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	Strokes   int       `json:"strokes" yaml:"strokes"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Settings holds one user's preferences document
type Settings struct {
	UserID    string          `json:"user_id" yaml:"user_id"`
	Data      json.RawMessage `json:"data" yaml:"-"`
	UpdatedAt time.Time       `json:"updated_at" yaml:"updated_at"`
	Malformed Malformed       `json:"-" yaml:"-"`
}

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool { return &v }

// StringPtr returns a pointer to v
func StringPtr(v string) *string { return &v }

// TimeFormat is the on-disk timestamp layout used by every backend
const TimeFormat = time.RFC3339Nano

// FormatTime renders t in UTC using TimeFormat. The zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeFormat)
}

// Malformed maps a column to the stored value that could not be read. The
// record carries the zero value for that column instead.
type Malformed map[string]string

// Add records raw as the unreadable value of field
func (m *Malformed) Add(field, raw string) {
	if *m == nil {
		*m = make(Malformed)
	}
	(*m)[field] = raw
}

// Fields returns the malformed columns in sorted order
func (m Malformed) Fields() []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
