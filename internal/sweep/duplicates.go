package sweep

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/logging"
)

// DuplicateGroup is one canonical key shared by more than one record
type DuplicateGroup struct {
	Key      string
	Survivor string
	Removed  []string
}

// Earlier reports whether record a outranks record b under the survivor rule:
// earliest creation time first, then lowest id. A zero creation time ranks
// after every real one. The order is total, so every group has exactly one
// survivor.
func Earlier(aCreated time.Time, aID string, bCreated time.Time, bID string) bool {
	switch {
	case aCreated.IsZero() != bCreated.IsZero():
		return !aCreated.IsZero()
	case !aCreated.Equal(bCreated):
		return aCreated.Before(bCreated)
	default:
		return aID < bID
	}
}

// RankLevels sorts levels so that the survivor comes first
func RankLevels(levels []*domain.Level) {
	sort.SliceStable(levels, func(i, j int) bool {
		return Earlier(levels[i].CreatedAt, levels[i].ID, levels[j].CreatedAt, levels[j].ID)
	})
}

// RankUsers sorts users so that the survivor comes first
func RankUsers(users []*domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return Earlier(users[i].CreatedAt, users[i].ID, users[j].CreatedAt, users[j].ID)
	})
}

// FindDuplicateLevels plans the deletion of every public level that shares a
// canonical key with an earlier public level. Private levels are never
// grouped.
func FindDuplicateLevels(ctx context.Context, snap *Snapshot) (Result, []DuplicateGroup) {
	log := logging.FromContext(ctx)
	res := Result{Stage: "duplicate-levels"}
	var groups []DuplicateGroup

	for _, key := range snap.LevelIndex.Keys() {
		var public []*domain.Level
		for _, l := range snap.LevelIndex.Lookup(key) {
			if l.Public() {
				public = append(public, l)
			}
		}
		if len(public) < 2 {
			continue
		}

		RankLevels(public)
		survivor := public[0]
		group := DuplicateGroup{Key: key, Survivor: survivor.ID}
		for _, dup := range public[1:] {
			group.Removed = append(group.Removed, dup.ID)
			res.add(Action{
				Kind:     KindDelete,
				Entity:   domain.EntityLevel,
				TargetID: dup.ID,
				Reason:   ReasonDuplicate,
				Detail:   fmt.Sprintf("duplicate of %s (key %q)", survivor.ID, key),
			})
		}
		groups = append(groups, group)

		log.Info().
			Str("key", key).
			Str("survivor", survivor.ID).
			Strs("removed", group.Removed).
			Msg("Duplicate level group")
	}
	return res, groups
}

// FindDuplicateUsers plans the deletion of every user sharing an identity
// key with an earlier user.
func FindDuplicateUsers(ctx context.Context, snap *Snapshot) (Result, []DuplicateGroup) {
	log := logging.FromContext(ctx)
	res := Result{Stage: "duplicate-users"}
	var groups []DuplicateGroup

	for _, key := range snap.UserIndex.Keys() {
		members := append([]*domain.User(nil), snap.UserIndex.Lookup(key)...)
		if len(members) < 2 {
			continue
		}

		RankUsers(members)
		survivor := members[0]
		group := DuplicateGroup{Key: key, Survivor: survivor.ID}
		for _, dup := range members[1:] {
			group.Removed = append(group.Removed, dup.ID)
			res.add(Action{
				Kind:     KindDelete,
				Entity:   domain.EntityUser,
				TargetID: dup.ID,
				Reason:   ReasonDuplicate,
				Detail:   fmt.Sprintf("duplicate of %s (key %q)", survivor.ID, key),
			})
		}
		groups = append(groups, group)

		log.Info().
			Str("key", key).
			Str("survivor", survivor.ID).
			Strs("removed", group.Removed).
			Msg("Duplicate user group")
	}
	return res, groups
}
