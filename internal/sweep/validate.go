package sweep

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/keys"
	"github.com/lherron/levelsweep/internal/logging"
)

// DefaultLevelTitle is given to stored levels that have no title anywhere
const DefaultLevelTitle = "Untitled level"

// ValidateLevels checks every level. Recoverable defects become one update
// action per level; unrecoverable ones are reported and the level is left
// alone. Nothing is ever deleted here.
func ValidateLevels(ctx context.Context, snap *Snapshot) Result {
	log := logging.FromContext(ctx)
	res := Result{Stage: "validate-levels"}

	for i := range snap.Levels {
		l := &snap.Levels[i]

		for _, field := range l.Malformed.Fields() {
			// a zero last_modified is restored from created_at below
			if field == "last_modified" && !l.CreatedAt.IsZero() {
				continue
			}
			res.fail(malformedFinding(domain.EntityLevel, l.ID, field, l.Malformed[field]))
			log.Warn().Str("level", l.ID).Str("field", field).Msg("Level has unreadable timestamp")
		}

		doc, err := domain.DecodeObject(l.Data)
		if err == nil {
			err = domain.ValidateLevelGeometry(doc)
		}
		if err != nil {
			verr := &domain.ValidationError{Entity: domain.EntityLevel, ID: l.ID, Field: "data", Message: err.Error()}
			res.fail(Finding{Entity: domain.EntityLevel, ID: l.ID, Context: fmt.Sprintf("level %s", l.ID), Message: verr.Error()})
			log.Warn().Str("level", l.ID).Err(err).Msg("Level has unrecoverable defect")
			continue
		}

		patch := domain.LevelPatch{}
		var fixed []string

		if l.IsPublic == nil {
			patch.IsPublic = domain.BoolPtr(false)
			fixed = append(fixed, "is_public")
		}
		if strings.TrimSpace(l.Title) == "" {
			title, ok := keys.TitleFromDocument(l.Data)
			if !ok {
				title = DefaultLevelTitle
			}
			patch.Title = &title
			fixed = append(fixed, "title")
		}
		if strings.TrimSpace(l.AuthorName) == "" {
			if u, ok := snap.UsersByID[l.AuthorID]; ok {
				name := u.DisplayName
				if strings.TrimSpace(name) == "" {
					name = u.Username
				}
				if strings.TrimSpace(name) != "" {
					patch.AuthorName = &name
					fixed = append(fixed, "author_name")
				}
			}
		}
		if l.LastModified.IsZero() && !l.CreatedAt.IsZero() {
			created := l.CreatedAt
			patch.LastModified = &created
			fixed = append(fixed, "last_modified")
		}

		if patch.IsEmpty() {
			continue
		}
		before := *l
		res.add(Action{
			Kind:       KindUpdate,
			Entity:     domain.EntityLevel,
			TargetID:   l.ID,
			Reason:     ReasonFix,
			Detail:     "fix " + strings.Join(fixed, ", "),
			LevelPatch: &patch,
			Before:     &before,
		})
		log.Debug().Str("level", l.ID).Strs("fields", fixed).Msg("Level needs fix")
	}
	return res
}

// ValidateUsers checks identity fields on every user
func ValidateUsers(ctx context.Context, snap *Snapshot) Result {
	log := logging.FromContext(ctx)
	res := Result{Stage: "validate-users"}

	for i := range snap.Users {
		u := &snap.Users[i]
		patch := domain.UserPatch{}
		var fixed []string

		for _, field := range u.Malformed.Fields() {
			res.fail(malformedFinding(domain.EntityUser, u.ID, field, u.Malformed[field]))
			log.Warn().Str("user", u.ID).Str("field", field).Msg("User has unreadable timestamp")
		}

		username := strings.TrimSpace(u.Username)
		if username == "" {
			local, _, _ := strings.Cut(strings.TrimSpace(u.Email), "@")
			if local == "" {
				verr := &domain.ValidationError{Entity: domain.EntityUser, ID: u.ID, Field: "username", Message: "no username and no email to derive one from"}
				res.fail(Finding{Entity: domain.EntityUser, ID: u.ID, Context: fmt.Sprintf("user %s", u.ID), Message: verr.Error()})
				log.Warn().Str("user", u.ID).Msg("User has no identity")
				continue
			}
			username = local
			patch.Username = &username
			fixed = append(fixed, "username")
		}
		if strings.TrimSpace(u.DisplayName) == "" {
			display := username
			patch.DisplayName = &display
			fixed = append(fixed, "display_name")
		}

		if patch.IsEmpty() {
			continue
		}
		res.add(Action{
			Kind:      KindUpdate,
			Entity:    domain.EntityUser,
			TargetID:  u.ID,
			Reason:    ReasonFix,
			Detail:    "fix " + strings.Join(fixed, ", "),
			UserPatch: &patch,
		})
	}
	return res
}

// ValidateSettings makes sure every user has exactly one well-formed
// settings document. Missing settings are created with an empty document.
func ValidateSettings(ctx context.Context, snap *Snapshot) Result {
	res := Result{Stage: "validate-settings"}
	if !snap.Loaded().Settings {
		return res
	}

	for i := range snap.Users {
		u := &snap.Users[i]
		s, ok := snap.Settings[u.ID]
		if !ok {
			res.add(Action{
				Kind:     KindCreate,
				Entity:   domain.EntitySettings,
				TargetID: u.ID,
				Reason:   ReasonFix,
				Detail:   "create default settings",
				Settings: &domain.Settings{UserID: u.ID, Data: json.RawMessage(`{}`), UpdatedAt: snap.TakenAt},
			})
			continue
		}
		for _, field := range s.Malformed.Fields() {
			res.fail(malformedFinding(domain.EntitySettings, u.ID, field, s.Malformed[field]))
		}
		if _, err := domain.DecodeObject(s.Data); err != nil {
			verr := &domain.ValidationError{Entity: domain.EntitySettings, ID: u.ID, Field: "data", Message: err.Error()}
			res.fail(Finding{Entity: domain.EntitySettings, ID: u.ID, Context: fmt.Sprintf("settings %s", u.ID), Message: verr.Error()})
			logging.FromContext(ctx).Warn().Str("user", u.ID).Err(err).Msg("Settings document is malformed")
		}
	}
	return res
}

// malformedFinding reports a column whose stored value could not be read.
// created_at is not patchable, so these are never fixed.
func malformedFinding(entity domain.Entity, id, field, raw string) Finding {
	verr := &domain.ValidationError{Entity: entity, ID: id, Field: field, Message: fmt.Sprintf("unreadable timestamp %q", raw)}
	return Finding{Entity: entity, ID: id, Context: fmt.Sprintf("%s %s", entity, id), Message: verr.Error()}
}
