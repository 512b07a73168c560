package redaction

import (
	"errors"
	"fmt"
)

// Step is one stage of an account purge. Steps run in declaration order.
type Step int

const (
	StepEvents Step = iota + 1
	StepPosts
	StepLikes
	StepComments
	StepMessages
	StepConversations
	StepProfile
	StepIdentity
)

func (s Step) String() string {
	switch s {
	case StepEvents:
		return "events"
	case StepPosts:
		return "posts"
	case StepLikes:
		return "likes"
	case StepComments:
		return "comments"
	case StepMessages:
		return "messages"
	case StepConversations:
		return "conversations"
	case StepProfile:
		return "profile"
	case StepIdentity:
		return "identity"
	}
	return "unknown"
}

// Result is the fate of one sub-operation. A non-nil Err means the failure
// was ignored and the step carried on.
type Result struct {
	Target string
	Err    error
}

func (r Result) Ignored() bool {
	return r.Err != nil
}

// ErrPostKept marks an owned post that is still in the store after its step.
var ErrPostKept = errors.New("post kept")

// BatchOutcome collects the results of one step. QueryErr is set when the
// documents to process could not be listed, so the step may have missed some.
type BatchOutcome struct {
	Step     Step
	Matched  int
	Results  []Result
	QueryErr error
}

// Complete reports whether nothing the step had to remove was left behind.
// Other ignored results do not count.
func (b *BatchOutcome) Complete() bool {
	return b.QueryErr == nil && len(b.Kept()) == 0
}

// Kept returns the results of owned posts that could not be removed.
func (b *BatchOutcome) Kept() []Result {
	var out []Result
	for _, r := range b.Results {
		if errors.Is(r.Err, ErrPostKept) {
			out = append(out, r)
		}
	}
	return out
}

func (b *BatchOutcome) Ignored() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Ignored() {
			out = append(out, r)
		}
	}
	return out
}

type Outcome struct {
	UserID string
	Steps  []BatchOutcome
	// FailedStep is the fatal step that stopped the purge, zero if none did.
	FailedStep Step
}

// Step returns the outcome of s, or nil when s did not run.
func (o *Outcome) Step(s Step) *BatchOutcome {
	for i := range o.Steps {
		if o.Steps[i].Step == s {
			return &o.Steps[i]
		}
	}
	return nil
}

func (o *Outcome) Ignored() []Result {
	var out []Result
	for i := range o.Steps {
		out = append(out, o.Steps[i].Ignored()...)
	}
	return out
}

// incomplete joins the errors of every step that may have left content
// attributed to the user: failed queries and kept posts.
func (o *Outcome) incomplete() error {
	var errs []error
	for i := range o.Steps {
		step := &o.Steps[i]
		if step.QueryErr != nil {
			errs = append(errs, step.QueryErr)
		}
		for _, r := range step.Kept() {
			errs = append(errs, fmt.Errorf("%s: %s: %w", step.Step, r.Target, r.Err))
		}
	}
	return errors.Join(errs...)
}
