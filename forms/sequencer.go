package forms

import (
	"errors"
	"fmt"
)

var (
	ErrStepOutOfRange    = errors.New("forms: step out of range")
	ErrLinearNavigation  = errors.New("forms: direct step navigation is disabled in linear mode")
	ErrUnknownNavigation = errors.New("forms: unknown navigation mode")
)

type Mode string

const (
	// ModeLinear moves one step at a time and allows generation on the last step only.
	ModeLinear Mode = "linear"
	// ModeFree allows jumping to any step and generation once every step was visited.
	ModeFree Mode = "free"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLinear:
		return ModeLinear, nil
	case ModeFree:
		return ModeFree, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownNavigation, s)
}

// Sequencer is the wizard step cursor, bounded to [1, Count].
type Sequencer struct {
	count   int
	current int
	mode    Mode
	visited []bool // index 0 unused
}

// NewSequencer starts at step 1. A count below 1 is treated as 1.
func NewSequencer(count int, mode Mode) *Sequencer {
	if count < 1 {
		count = 1
	}
	if mode == "" {
		mode = ModeLinear
	}
	s := &Sequencer{count: count, current: 1, mode: mode, visited: make([]bool, count+1)}
	s.visited[1] = true
	return s
}

func (s *Sequencer) Current() int { return s.current }
func (s *Sequencer) Count() int   { return s.count }
func (s *Sequencer) Mode() Mode   { return s.mode }
func (s *Sequencer) IsFirst() bool {
	return s.current == 1
}
func (s *Sequencer) IsLast() bool {
	return s.current == s.count
}

// Next advances one step, clamped at Count.
func (s *Sequencer) Next() int {
	if s.current < s.count {
		s.current++
		s.visited[s.current] = true
	}
	return s.current
}

// Back moves one step back, clamped at 1.
func (s *Sequencer) Back() int {
	if s.current > 1 {
		s.current--
	}
	return s.current
}

// Goto jumps to step k. The state is unchanged on error.
func (s *Sequencer) Goto(k int) error {
	if s.mode != ModeFree {
		return ErrLinearNavigation
	}
	if k < 1 || k > s.count {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrStepOutOfRange, k, s.count)
	}
	s.current = k
	s.visited[k] = true
	return nil
}

func (s *Sequencer) Visited(k int) bool {
	if k < 1 || k > s.count {
		return false
	}
	return s.visited[k]
}

// VisitedSteps returns the visited step numbers in ascending order.
func (s *Sequencer) VisitedSteps() []int {
	var steps []int
	for k := 1; k <= s.count; k++ {
		if s.visited[k] {
			steps = append(steps, k)
		}
	}
	return steps
}

func (s *Sequencer) AllVisited() bool {
	for k := 1; k <= s.count; k++ {
		if !s.visited[k] {
			return false
		}
	}
	return true
}

// CanGenerate reports whether the document may be produced from the current position.
func (s *Sequencer) CanGenerate() bool {
	if s.mode == ModeFree {
		return s.AllVisited()
	}
	return s.IsLast()
}

// Reshape fits the sequencer to a new step count and mode, keeping the visited
// steps that still exist and clamping the cursor. It reports whether anything changed.
func (s *Sequencer) Reshape(count int, mode Mode) bool {
	next := restore(count, mode, s.current, s.VisitedSteps())
	if next.count == s.count && next.mode == s.mode && next.current == s.current {
		return false
	}
	*s = *next
	return true
}

// restore rebuilds a sequencer from persisted values, clamping anything out of range.
func restore(count int, mode Mode, current int, visited []int) *Sequencer {
	s := NewSequencer(count, mode)
	s.current = min(max(current, 1), s.count)
	s.visited[s.current] = true
	for _, k := range visited {
		if k >= 1 && k <= s.count {
			s.visited[k] = true
		}
	}
	return s
}
