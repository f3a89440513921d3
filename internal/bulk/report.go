package bulk

import (
	"fmt"
	"io"

	"github.com/lherron/levelsweep/internal/sweep"
)

// Status is the execution state of one action
type Status string

const (
	StatusPlanned Status = "planned" // dry run
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
)

// ReportError is one recorded failure
type ReportError struct {
	Context string `json:"context" yaml:"context"`
	Message string `json:"message" yaml:"message"`
}

// Outcome is what happened to a single planned action
type Outcome struct {
	Kind     sweep.Kind   `json:"kind" yaml:"kind"`
	Entity   string       `json:"entity" yaml:"entity"`
	TargetID string       `json:"target_id,omitempty" yaml:"target_id,omitempty"`
	Reason   sweep.Reason `json:"reason" yaml:"reason"`
	Detail   string       `json:"detail,omitempty" yaml:"detail,omitempty"`
	Source   string       `json:"source,omitempty" yaml:"source,omitempty"`
	Status   Status       `json:"status" yaml:"status"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
	Diff     string       `json:"diff,omitempty" yaml:"diff,omitempty"`
}

func newOutcome(a *sweep.Action) Outcome {
	return Outcome{
		Kind:     a.Kind,
		Entity:   string(a.Entity),
		TargetID: a.TargetID,
		Reason:   a.Reason,
		Detail:   a.Detail,
		Source:   a.Source,
	}
}

func (o Outcome) context() string {
	target := o.TargetID
	if target == "" {
		target = o.Source
	}
	return fmt.Sprintf("%s %s %s", o.Kind, o.Entity, target)
}

// Report aggregates the outcome of a run. Under dry run the counters hold
// planned actions.
type Report struct {
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	Created int `json:"created" yaml:"created"`
	Updated int `json:"updated" yaml:"updated"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Removed int `json:"removed" yaml:"removed"`
	Fixed   int `json:"fixed" yaml:"fixed"`
	Flagged int `json:"flagged" yaml:"flagged"`

	Errors   []ReportError `json:"errors" yaml:"errors"`
	Warnings []ReportError `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Skips    []ReportError `json:"skips,omitempty" yaml:"skips,omitempty"`
	Actions  []Outcome     `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// NewReport seeds a report with the plan's non-action findings
func NewReport(plan *sweep.Plan, dryRun bool) *Report {
	r := &Report{DryRun: dryRun, Errors: []ReportError{}}
	if plan == nil {
		return r
	}
	for _, f := range plan.Skipped {
		r.Skipped++
		r.Skips = append(r.Skips, ReportError{Context: f.Context, Message: f.Message})
	}
	for _, f := range plan.Flagged {
		r.Flagged++
		r.Warnings = append(r.Warnings, ReportError{Context: f.Context, Message: f.Message})
	}
	for _, f := range plan.Errors {
		r.AddError(f.Context, f.Message)
	}
	return r
}

// AddError records a failure
func (r *Report) AddError(context, message string) {
	r.Errors = append(r.Errors, ReportError{Context: context, Message: message})
}

// record counts a planned or applied action
func (r *Report) record(a *sweep.Action, o Outcome) {
	r.Actions = append(r.Actions, o)
	switch {
	case a.Kind == sweep.KindDelete:
		r.Removed++
	case a.Reason == sweep.ReasonFix:
		r.Fixed++
	case a.Kind == sweep.KindCreate:
		r.Created++
	case a.Kind == sweep.KindUpdate:
		r.Updated++
	}
}

// HasErrors reports whether any error was recorded
func (r *Report) HasErrors() bool {
	return len(r.Errors) > 0
}

// ExitCode returns 1 if any error was recorded, 0 otherwise
func (r *Report) ExitCode() int {
	if r.HasErrors() {
		return 1
	}
	return 0
}

// PrintSummary prints a human-readable summary of the report
func (r *Report) PrintSummary(w io.Writer) {
	if r.DryRun {
		fmt.Fprintf(w, "Dry run: no changes were made\n\n")
	}
	for _, o := range r.Actions {
		icon := "✓"
		switch {
		case o.Status == StatusFailed:
			icon = "✗"
		case o.Status == StatusPlanned:
			icon = "•"
		}
		line := fmt.Sprintf("  %s %s", icon, o.context())
		if o.Detail != "" {
			line += ": " + o.Detail
		}
		fmt.Fprintln(w, line)
		if o.Diff != "" {
			fmt.Fprint(w, indent(o.Diff, "      "))
		}
	}
	if len(r.Actions) > 0 {
		fmt.Fprintln(w)
	}

	verb := ""
	if r.DryRun {
		verb = " (planned)"
	}
	fmt.Fprintf(w, "Summary%s: created %d, updated %d, fixed %d, removed %d, skipped %d, flagged %d, errors %d\n",
		verb, r.Created, r.Updated, r.Fixed, r.Removed, r.Skipped, r.Flagged, len(r.Errors))

	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, e := range r.Warnings {
			fmt.Fprintf(w, "  ⚠ %s: %s\n", e.Context, e.Message)
		}
	}

	if len(r.Errors) > 0 && len(r.Errors) <= 10 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  ✗ %s: %s\n", e.Context, e.Message)
		}
	} else if len(r.Errors) > 10 {
		fmt.Fprintf(w, "\nShowing first 10 errors (of %d):\n", len(r.Errors))
		for _, e := range r.Errors[:10] {
			fmt.Fprintf(w, "  ✗ %s: %s\n", e.Context, e.Message)
		}
	}

	if !r.HasErrors() {
		fmt.Fprintf(w, "\n✓ Run completed without errors\n")
	}
}
