package sweep

import (
	"context"
	"fmt"
	"strings"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/keys"
	"github.com/lherron/levelsweep/internal/logging"
)

// TestMarkers are the signatures left behind by connectivity checks and
// fixtures. Matching is case-insensitive.
type TestMarkers struct {
	AuthorIDs     []string `yaml:"author_ids" json:"author_ids"`
	TitlePrefixes []string `yaml:"title_prefixes" json:"title_prefixes"`
	UserIDs       []string `yaml:"user_ids" json:"user_ids"`
	Usernames     []string `yaml:"usernames" json:"usernames"`
}

// Empty reports whether no marker is configured
func (m TestMarkers) Empty() bool {
	return len(m.AuthorIDs) == 0 && len(m.TitlePrefixes) == 0 && len(m.UserIDs) == 0 && len(m.Usernames) == 0
}

func foldSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if f := keys.Fold(v); f != "" {
			set[f] = true
		}
	}
	return set
}

// FindTestData plans the deletion of levels and users matching the markers,
// and of scores belonging to either.
func FindTestData(ctx context.Context, snap *Snapshot, markers TestMarkers) Result {
	log := logging.FromContext(ctx)
	res := Result{Stage: "test-data"}
	if markers.Empty() {
		return res
	}

	authorIDs := foldSet(markers.AuthorIDs)
	userIDs := foldSet(markers.UserIDs)
	usernames := foldSet(markers.Usernames)
	var prefixes []string
	for _, p := range markers.TitlePrefixes {
		if f := keys.Fold(p); f != "" {
			prefixes = append(prefixes, f)
		}
	}

	testLevels := make(map[string]bool)
	for i := range snap.Levels {
		l := &snap.Levels[i]
		var why string
		if authorIDs[keys.Fold(l.AuthorID)] {
			why = fmt.Sprintf("author %s is a test marker", l.AuthorID)
		} else {
			title := keys.Fold(l.Title)
			for _, p := range prefixes {
				if strings.HasPrefix(title, p) {
					why = fmt.Sprintf("title starts with %q", p)
					break
				}
			}
		}
		if why == "" {
			continue
		}
		testLevels[l.ID] = true
		res.add(Action{Kind: KindDelete, Entity: domain.EntityLevel, TargetID: l.ID, Reason: ReasonTestData, Detail: why})
		log.Info().Str("level", l.ID).Str("title", l.Title).Msg("Test level")
	}

	testUsers := make(map[string]bool)
	for i := range snap.Users {
		u := &snap.Users[i]
		var why string
		switch {
		case userIDs[keys.Fold(u.ID)]:
			why = fmt.Sprintf("user id %s is a test marker", u.ID)
		case usernames[keys.Fold(u.Username)]:
			why = fmt.Sprintf("username %s is a test marker", u.Username)
		default:
			continue
		}
		testUsers[u.ID] = true
		res.add(Action{Kind: KindDelete, Entity: domain.EntityUser, TargetID: u.ID, Reason: ReasonTestData, Detail: why})
		log.Info().Str("user", u.ID).Str("username", u.Username).Msg("Test user")
	}

	for i := range snap.Scores {
		s := &snap.Scores[i]
		if !testLevels[s.LevelID] && !testUsers[s.UserID] && !userIDs[keys.Fold(s.UserID)] {
			continue
		}
		res.add(Action{
			Kind:     KindDelete,
			Entity:   domain.EntityScore,
			TargetID: s.ID,
			Reason:   ReasonTestData,
			Detail:   fmt.Sprintf("belongs to test level %s or user %s", s.LevelID, s.UserID),
		})
	}
	return res
}
