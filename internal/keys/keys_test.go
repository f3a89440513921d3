package keys

import (
	"testing"

	"github.com/lherron/levelsweep/internal/domain"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		authorID string
		want     string
	}{
		{name: "ascii", title: "Hole One", authorID: "system", want: "hole one__system"},
		{name: "upper", title: "HOLE ONE", authorID: "SYSTEM", want: "hole one__system"},
		{name: "padded", title: "  Hole One ", authorID: "system", want: "hole one__system"},
		{name: "non-ascii upper", title: "ÀB", authorID: "U1", want: "àb__u1"},
		{name: "decomposed accent", title: "Cafe\u0301", authorID: "u1", want: "caf\u00e9__u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Level(tt.title, tt.authorID); got != tt.want {
				t.Errorf("Level(%q, %q) = %q, want %q", tt.title, tt.authorID, got, tt.want)
			}
		})
	}
}

func TestLevelKey_CaseInsensitiveAndStable(t *testing.T) {
	a := &domain.Level{ID: "1", Title: "Hole One", AuthorID: "system"}
	b := &domain.Level{ID: "2", Title: "hole one", AuthorID: "System"}

	if LevelKey(a) != LevelKey(b) {
		t.Errorf("keys differ: %q vs %q", LevelKey(a), LevelKey(b))
	}
	if LevelKey(a) != LevelKey(a) {
		t.Error("key not stable under re-derivation")
	}
}

func TestLevelKey_UntitledNeverCollide(t *testing.T) {
	a := &domain.Level{ID: "1", Title: "", AuthorID: "system"}
	b := &domain.Level{ID: "2", Title: "   ", AuthorID: "system"}

	if LevelKey(a) == LevelKey(b) {
		t.Errorf("untitled levels share key %q", LevelKey(a))
	}
}

func TestUserKey(t *testing.T) {
	tests := []struct {
		name string
		user domain.User
		want string
	}{
		{name: "email wins", user: domain.User{ID: "u1", Username: "Ann", Email: "Ann@Example.com"}, want: "email:ann@example.com"},
		{name: "username fallback", user: domain.User{ID: "u1", Username: "Ann"}, want: "name:ann"},
		{name: "id fallback", user: domain.User{ID: "u1"}, want: "id:u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserKey(&tt.user); got != tt.want {
				t.Errorf("UserKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
		want string
	}{
		{name: "top-level title", data: `{"title":"Hole One","course":{"title":"Course"}}`, path: "a.json", want: "Hole One"},
		{name: "course title", data: `{"course":{"title":"Windmill"}}`, path: "a.json", want: "Windmill"},
		{name: "blank title falls through", data: `{"title":"  ","course":{"title":"Windmill"}}`, path: "a.json", want: "Windmill"},
		{name: "scalar course keeps top-level title", data: `{"title":"Ramp","course":"x"}`, path: "a.json", want: "Ramp"},
		{name: "non-string title", data: `{"title":7}`, path: "levels/loop.json", want: "loop"},
		{name: "filename fallback", data: `{"holes":[]}`, path: "/tmp/levels/Big Loop.JSON", want: "Big Loop"},
		{name: "invalid json", data: `{`, path: "broken.json", want: "broken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title([]byte(tt.data), tt.path); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}
