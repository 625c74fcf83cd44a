package forms

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var ErrUnknownField = errors.New("forms: unknown field")

// State is the flat field-name to value mapping of one document session.
// Values are free text; an empty value means "not filled in".
type State struct {
	values map[string]string
}

// NewState returns a State with every named field present and empty.
func NewState(names ...string) *State {
	s := &State{values: make(map[string]string, len(names))}
	for _, name := range names {
		s.values[name] = ""
	}
	return s
}

func (s *State) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Get returns the value of name, or "" when it is unset or unknown.
func (s *State) Get(name string) string {
	return s.values[name]
}

func (s *State) Set(name string, value string) error {
	if !s.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	s.values[name] = value
	return nil
}

// Merge applies every known field in values. Unknown names are skipped and returned sorted.
func (s *State) Merge(values map[string]string) []string {
	var unknown []string
	for name, value := range values {
		if !s.Has(name) {
			unknown = append(unknown, name)
			continue
		}
		s.values[name] = value
	}
	slices.Sort(unknown)
	return unknown
}

// Fields returns a copy of all values.
func (s *State) Fields() map[string]string {
	return maps.Clone(s.values)
}

func (s *State) Names() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// Filled reports how many fields hold a non-empty value.
func (s *State) Filled() int {
	n := 0
	for _, v := range s.values {
		if v != "" {
			n++
		}
	}
	return n
}

func (s *State) Clone() *State {
	return &State{values: maps.Clone(s.values)}
}
