package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrCorruptSession = errors.New("forms: corrupt session record")

// Hash field names of a persisted session. Form values are stored under fieldPrefix + name.
const (
	keyDocType  = "doc_type"
	keySteps    = "steps"
	keyStep     = "step"
	keyMode     = "mode"
	keyVisited  = "visited"
	fieldPrefix = "f:"
)

// Session is one in-progress wizard: the document type, its form values and its step cursor.
type Session struct {
	DocType string
	State   *State
	Seq     *Sequencer
}

func NewSession(docType string, stepCount int, mode Mode, fieldNames ...string) *Session {
	return &Session{
		DocType: docType,
		State:   NewState(fieldNames...),
		Seq:     NewSequencer(stepCount, mode),
	}
}

// ToFields flattens the session into a string hash suitable for a KV store.
func (s *Session) ToFields() map[string]any {
	visited := s.Seq.VisitedSteps()
	parts := make([]string, len(visited))
	for i, k := range visited {
		parts[i] = strconv.Itoa(k)
	}
	fields := map[string]any{
		keyDocType: s.DocType,
		keySteps:   strconv.Itoa(s.Seq.Count()),
		keyStep:    strconv.Itoa(s.Seq.Current()),
		keyMode:    string(s.Seq.Mode()),
		keyVisited: strings.Join(parts, ","),
	}
	for name, value := range s.State.values {
		fields[fieldPrefix+name] = value
	}
	return fields
}

// SessionFromFields is the inverse of ToFields.
func SessionFromFields(fields map[string]string) (*Session, error) {
	docType := fields[keyDocType]
	if docType == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrCorruptSession, keyDocType)
	}
	count, err := strconv.Atoi(fields[keySteps])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSession, keySteps, err)
	}
	current, err := strconv.Atoi(fields[keyStep])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSession, keyStep, err)
	}
	mode, err := ParseMode(fields[keyMode])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	var visited []int
	for _, part := range strings.Split(fields[keyVisited], ",") {
		if part == "" {
			continue
		}
		k, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSession, keyVisited, err)
		}
		visited = append(visited, k)
	}

	state := NewState()
	for key, value := range fields {
		if name, ok := strings.CutPrefix(key, fieldPrefix); ok {
			state.values[name] = value
		}
	}
	return &Session{DocType: docType, State: state, Seq: restore(count, mode, current, visited)}, nil
}
