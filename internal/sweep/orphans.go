package sweep

import (
	"context"
	"fmt"
	"strings"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/keys"
	"github.com/lherron/levelsweep/internal/logging"
)

// OrphanOptions tunes orphan detection
type OrphanOptions struct {
	// SystemAuthors are author ids that never resolve to a user record
	// (e.g. the importer's "system" identity) and must not be flagged.
	SystemAuthors []string
}

// FindOrphans resolves every foreign reference against the snapshot.
// Scores pointing at a missing level or user are planned for deletion.
// Levels whose author is missing are only flagged.
//
// References are checked once, against the snapshot; records created or
// deleted by the same run are not taken into account.
func FindOrphans(ctx context.Context, snap *Snapshot, opts OrphanOptions) Result {
	log := logging.FromContext(ctx)
	res := Result{Stage: "orphans"}

	for i := range snap.Scores {
		s := &snap.Scores[i]
		var missing []string
		if _, ok := snap.LevelsByID[s.LevelID]; !ok {
			missing = append(missing, fmt.Sprintf("level %s", s.LevelID))
		}
		if snap.Loaded().Users {
			if _, ok := snap.UsersByID[s.UserID]; !ok {
				missing = append(missing, fmt.Sprintf("user %s", s.UserID))
			}
		}
		if len(missing) == 0 {
			continue
		}

		detail := "references missing " + strings.Join(missing, " and ")
		res.add(Action{
			Kind:     KindDelete,
			Entity:   domain.EntityScore,
			TargetID: s.ID,
			Reason:   ReasonOrphan,
			Detail:   detail,
		})
		log.Info().Str("score", s.ID).Str("level", s.LevelID).Str("user", s.UserID).Msg("Orphaned score")
	}

	if !snap.Loaded().Users {
		return res
	}

	system := make(map[string]bool, len(opts.SystemAuthors))
	for _, id := range opts.SystemAuthors {
		system[keys.Fold(id)] = true
	}
	for i := range snap.Levels {
		l := &snap.Levels[i]
		if l.AuthorID == "" || system[keys.Fold(l.AuthorID)] {
			continue
		}
		if _, ok := snap.UsersByID[l.AuthorID]; ok {
			continue
		}
		res.flag(Finding{
			Entity:  domain.EntityLevel,
			ID:      l.ID,
			Context: fmt.Sprintf("level %s", l.ID),
			Message: fmt.Sprintf("author %s does not exist", l.AuthorID),
		})
		log.Warn().Str("level", l.ID).Str("author", l.AuthorID).Msg("Level references missing author")
	}
	return res
}
