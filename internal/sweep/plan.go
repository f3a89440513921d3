package sweep

import (
	"fmt"

	"github.com/lherron/levelsweep/internal/domain"
)

// Kind is the type of store mutation an action performs
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Reason records which stage produced an action
type Reason string

const (
	ReasonDuplicate Reason = "duplicate"
	ReasonOrphan    Reason = "orphan"
	ReasonTestData  Reason = "test-data"
	ReasonFix       Reason = "fix"
	ReasonImport    Reason = "import"
)

// Action is one planned store mutation
type Action struct {
	Kind     Kind          `json:"kind" yaml:"kind"`
	Entity   domain.Entity `json:"entity" yaml:"entity"`
	TargetID string        `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Reason   Reason        `json:"reason" yaml:"reason"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Source   string        `json:"source,omitempty" yaml:"source,omitempty"` // import file, when any

	Level      *domain.Level      `json:"-" yaml:"-"` // payload for level creates
	LevelPatch *domain.LevelPatch `json:"-" yaml:"-"`
	UserPatch  *domain.UserPatch  `json:"-" yaml:"-"`
	Settings   *domain.Settings   `json:"-" yaml:"-"` // payload for settings creates
	Before     *domain.Level      `json:"-" yaml:"-"` // current state of an updated level
}

// Context identifies the action in logs and report errors
func (a *Action) Context() string {
	target := a.TargetID
	if target == "" && a.Source != "" {
		target = a.Source
	}
	if target == "" {
		return fmt.Sprintf("%s %s", a.Kind, a.Entity)
	}
	return fmt.Sprintf("%s %s %s", a.Kind, a.Entity, target)
}

// Finding is a non-action outcome of a detector: a skipped input, a flagged
// record or an unrecoverable defect.
type Finding struct {
	Entity  domain.Entity `json:"entity,omitempty" yaml:"entity,omitempty"`
	ID      string        `json:"id,omitempty" yaml:"id,omitempty"`
	Context string        `json:"context" yaml:"context"`
	Message string        `json:"message" yaml:"message"`
}

// Result is the output of one detector or of the importer
type Result struct {
	Stage   string
	Actions []Action
	Skipped []Finding
	Flagged []Finding
	Errors  []Finding
}

func (r *Result) skip(f Finding) { r.Skipped = append(r.Skipped, f) }
func (r *Result) flag(f Finding) { r.Flagged = append(r.Flagged, f) }
func (r *Result) fail(f Finding) { r.Errors = append(r.Errors, f) }
func (r *Result) add(a Action)   { r.Actions = append(r.Actions, a) }

// Plan is the ordered list of actions for one run, plus everything the
// detectors reported without planning an action.
type Plan struct {
	Actions []Action
	Skipped []Finding
	Flagged []Finding
	Errors  []Finding
}

// Counts returns the number of planned actions per kind
func (p *Plan) Counts() map[Kind]int {
	counts := make(map[Kind]int, 3)
	for _, a := range p.Actions {
		counts[a.Kind]++
	}
	return counts
}

type targetKey struct {
	entity domain.Entity
	id     string
}

// BuildPlan merges detector results into one ordered plan. Results are taken
// in the order given. All deletions come first, then updates, then creates.
// A record is deleted at most once, and updates to a record that is being
// deleted are dropped.
func BuildPlan(results ...Result) *Plan {
	plan := &Plan{}
	var deletes, updates, creates []Action
	deleted := make(map[targetKey]bool)

	for _, r := range results {
		for _, a := range r.Actions {
			if a.Kind != KindDelete {
				continue
			}
			k := targetKey{a.Entity, a.TargetID}
			if deleted[k] {
				continue
			}
			deleted[k] = true
			deletes = append(deletes, a)
		}
		plan.Skipped = append(plan.Skipped, r.Skipped...)
		plan.Flagged = append(plan.Flagged, r.Flagged...)
		plan.Errors = append(plan.Errors, r.Errors...)
	}

	for _, r := range results {
		for _, a := range r.Actions {
			switch a.Kind {
			case KindUpdate:
				if deleted[targetKey{a.Entity, a.TargetID}] {
					continue
				}
				updates = append(updates, a)
			case KindCreate:
				// settings are keyed by user id
				if a.Entity == domain.EntitySettings && deleted[targetKey{domain.EntityUser, a.TargetID}] {
					continue
				}
				creates = append(creates, a)
			}
		}
	}

	plan.Actions = make([]Action, 0, len(deletes)+len(updates)+len(creates))
	plan.Actions = append(plan.Actions, deletes...)
	plan.Actions = append(plan.Actions, updates...)
	plan.Actions = append(plan.Actions, creates...)
	return plan
}
