package wizard

import (
	"errors"
	"fmt"
)

// Step is a position in the article wizard.
type Step int

const (
	StepOutline Step = iota + 1
	StepDraft
	StepReview
	StepPublished
)

// stepCount is used for the progress indicator.
const stepCount = 4

var stepNames = map[Step]string{
	StepOutline:   "outline",
	StepDraft:     "draft",
	StepReview:    "review",
	StepPublished: "published",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// MarshalText encodes the step by name so JSON views stay readable.
func (s Step) MarshalText() ([]byte, error) {
	n, ok := stepNames[s]
	if !ok {
		return nil, fmt.Errorf("wizard: unknown step %d", int(s))
	}
	return []byte(n), nil
}

// UnmarshalText parses a step name.
func (s *Step) UnmarshalText(b []byte) error {
	for k, v := range stepNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("wizard: unknown step %q", b)
}

// Terminal reports whether no transition leaves s.
func (s Step) Terminal() bool { return s == StepPublished }

// ErrInvalidTransition is returned for any move not listed in the tables below.
var ErrInvalidTransition = errors.New("wizard: invalid transition")

var forward = map[Step]Step{
	StepOutline: StepDraft,
	StepDraft:   StepReview,
	StepReview:  StepPublished,
}

var backward = map[Step]Step{
	StepDraft:  StepOutline,
	StepReview: StepDraft,
}

// next returns the step after from, or ErrInvalidTransition.
func next(from Step) (Step, error) {
	to, ok := forward[from]
	if !ok {
		return from, fmt.Errorf("%w: %s has no successor", ErrInvalidTransition, from)
	}
	return to, nil
}

// prev returns the step before from, or ErrInvalidTransition.
func prev(from Step) (Step, error) {
	to, ok := backward[from]
	if !ok {
		return from, fmt.Errorf("%w: cannot go back from %s", ErrInvalidTransition, from)
	}
	return to, nil
}

// progress is the completion percentage shown in the step header.
func progress(s Step) int {
	return int(s) * 100 / stepCount
}
