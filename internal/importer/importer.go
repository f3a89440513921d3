// Package importer classifies level files against a store snapshot.
//
// Every file becomes exactly one of: a create action, an update action
// (overwrite only), a skip, or an error. The snapshot is taken once before
// the first file is read so that decisions are consistent across the batch.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/lherron/levelsweep/internal/domain"
	"github.com/lherron/levelsweep/internal/keys"
	"github.com/lherron/levelsweep/internal/logging"
	"github.com/lherron/levelsweep/internal/sweep"
)

// Defaults for the identity imported levels are attributed to
const (
	DefaultAuthorID   = "system"
	DefaultAuthorName = "System"
)

// Options controls one import run
type Options struct {
	Dir        string
	Overwrite  bool
	AuthorID   string
	AuthorName string
	Now        time.Time // run start; stamped on created levels
}

func (o *Options) defaults() {
	if strings.TrimSpace(o.AuthorID) == "" {
		o.AuthorID = DefaultAuthorID
	}
	if strings.TrimSpace(o.AuthorName) == "" {
		o.AuthorName = DefaultAuthorName
	}
	if o.Now.IsZero() {
		o.Now = time.Now().UTC()
	}
}

// Plan reads every level file in opts.Dir and classifies it against snap.
// An unreadable directory is returned as an error; per-file failures are
// recorded in the result and do not stop the batch.
func Plan(ctx context.Context, snap *sweep.Snapshot, opts Options) (sweep.Result, error) {
	opts.defaults()
	res := sweep.Result{Stage: "import"}

	files, err := ListFiles(opts.Dir)
	if err != nil {
		return res, err
	}
	logging.FromContext(ctx).Info().Str("dir", opts.Dir).Int("files", len(files)).Msg("Importing levels")

	seen := make(map[string]string) // key -> file that claimed it in this batch
	for _, path := range files {
		classify(ctx, snap, opts, path, seen, &res)
	}
	return res, nil
}

func classify(ctx context.Context, snap *sweep.Snapshot, opts Options, path string, seen map[string]string, res *sweep.Result) {
	log := logging.FromContext(ctx).With().Str("file", filepath.Base(path)).Logger()

	doc, err := ReadDocument(path)
	if err != nil {
		res.Errors = append(res.Errors, sweep.Finding{Entity: domain.EntityLevel, Context: path, Message: parseMessage(err)})
		log.Warn().Err(err).Msg("Skipping unreadable level file")
		return
	}

	title := keys.Title(doc.Data, path)
	if title == "" {
		res.Errors = append(res.Errors, sweep.Finding{Entity: domain.EntityLevel, Context: path, Message: "no title in document or filename"})
		log.Warn().Msg("Level file has no usable title")
		return
	}
	key := keys.Level(title, opts.AuthorID)
	log = log.With().Str("key", key).Logger()

	if prev, ok := seen[key]; ok {
		res.Skipped = append(res.Skipped, sweep.Finding{
			Entity:  domain.EntityLevel,
			Context: path,
			Message: fmt.Sprintf("same key as %s in this batch", filepath.Base(prev)),
		})
		log.Info().Str("first", filepath.Base(prev)).Msg("Skip: duplicate within batch")
		return
	}
	seen[key] = path

	existing := append([]*domain.Level(nil), snap.LevelIndex.Lookup(key)...)
	if len(existing) == 0 {
		level := domain.Level{
			Title:        title,
			AuthorID:     opts.AuthorID,
			AuthorName:   opts.AuthorName,
			Data:         doc.Data,
			IsPublic:     domain.BoolPtr(true),
			CreatedAt:    opts.Now,
			LastModified: opts.Now,
		}
		res.Actions = append(res.Actions, sweep.Action{
			Kind:   sweep.KindCreate,
			Entity: domain.EntityLevel,
			Reason: sweep.ReasonImport,
			Detail: fmt.Sprintf("create %q", title),
			Source: path,
			Level:  &level,
		})
		log.Info().Msg("Create")
		return
	}

	sweep.RankLevels(existing)
	target := existing[0]

	if !opts.Overwrite {
		res.Skipped = append(res.Skipped, sweep.Finding{
			Entity:  domain.EntityLevel,
			ID:      target.ID,
			Context: path,
			Message: fmt.Sprintf("level %s already exists", target.ID),
		})
		log.Info().Str("level", target.ID).Msg("Skip: exists")
		return
	}

	if unchanged(target, title, opts.AuthorName, doc.Data) {
		res.Skipped = append(res.Skipped, sweep.Finding{
			Entity:  domain.EntityLevel,
			ID:      target.ID,
			Context: path,
			Message: fmt.Sprintf("level %s is up to date", target.ID),
		})
		log.Info().Str("level", target.ID).Msg("Skip: unchanged")
		return
	}

	data := doc.Data
	patch := domain.LevelPatch{
		Title:      domain.StringPtr(title),
		AuthorName: domain.StringPtr(opts.AuthorName),
		Data:       &data,
		IsPublic:   domain.BoolPtr(true),
	}
	before := *target
	res.Actions = append(res.Actions, sweep.Action{
		Kind:       sweep.KindUpdate,
		Entity:     domain.EntityLevel,
		TargetID:   target.ID,
		Reason:     sweep.ReasonImport,
		Detail:     fmt.Sprintf("overwrite %q", title),
		Source:     path,
		LevelPatch: &patch,
		Before:     &before,
	})
	log.Info().Str("level", target.ID).Msg("Update")
}

func unchanged(l *domain.Level, title, authorName string, data json.RawMessage) bool {
	if l.Title != title || l.AuthorName != authorName || !l.Public() {
		return false
	}
	var stored bytes.Buffer
	if err := json.Compact(&stored, l.Data); err != nil {
		return false
	}
	return bytes.Equal(stored.Bytes(), data)
}

func parseMessage(err error) string {
	var perr *domain.ParseError
	if errors.As(err, &perr) {
		return perr.Err.Error()
	}
	return err.Error()
}
