// Package snapshot writes canonical JSON backups of the record store.
//
// A snapshot holds every level, user, score and settings document. Its
// encoding is deterministic: keys are sorted and there is no insignificant
// whitespace, so two exports of an unchanged store are byte-identical and
// share a snapshot_rev.
package snapshot

// SchemaVersion is bumped whenever the snapshot shape changes
const SchemaVersion = 1

// DefaultOutputPath is the default snapshot file location.
const DefaultOutputPath = ".levelsweep/snapshot.json"

// Snapshot represents the complete canonical state of a record store.
// Collection keys are record ids; settings are keyed by user id.
type Snapshot struct {
	Meta     Meta                     `json:"meta"`
	Levels   map[string]LevelEntry    `json:"levels,omitempty"`
	Users    map[string]UserEntry     `json:"users,omitempty"`
	Scores   map[string]ScoreEntry    `json:"scores,omitempty"`
	Settings map[string]SettingsEntry `json:"settings,omitempty"`
}

// Meta contains snapshot metadata.
type Meta struct {
	SchemaVersion int    `json:"schema_version"`
	SnapshotRev   string `json:"snapshot_rev,omitempty"`
	GeneratedAt   string `json:"generated_at,omitempty"`
}

// LevelEntry represents a level in the snapshot. Data is kept as the stored
// text so malformed documents survive a round trip.
type LevelEntry struct {
	Title        string `json:"title"`
	AuthorID     string `json:"author_id"`
	AuthorName   string `json:"author_name,omitempty"`
	Data         string `json:"data,omitempty"`
	IsPublic     *bool  `json:"is_public,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// UserEntry represents a user in the snapshot.
type UserEntry struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ScoreEntry represents a score in the snapshot.
type ScoreEntry struct {
	LevelID   string `json:"level_id"`
	UserID    string `json:"user_id"`
	Strokes   int    `json:"strokes"`
	CreatedAt string `json:"created_at,omitempty"`
}

// SettingsEntry represents one user's settings document.
type SettingsEntry struct {
	Data      string `json:"data"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// ExportResult contains the result of an export operation.
type ExportResult struct {
	OutputPath  string `json:"out" yaml:"out"`
	SnapshotRev string `json:"snapshot_rev" yaml:"snapshot_rev"`
	Levels      int    `json:"levels" yaml:"levels"`
	Users       int    `json:"users" yaml:"users"`
	Scores      int    `json:"scores" yaml:"scores"`
	Settings    int    `json:"settings" yaml:"settings"`
}

// VerifyResult contains the result of a verify operation.
type VerifyResult struct {
	InputPath   string `json:"input" yaml:"input"`
	Valid       bool   `json:"valid" yaml:"valid"`
	SnapshotRev string `json:"snapshot_rev" yaml:"snapshot_rev"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
}
