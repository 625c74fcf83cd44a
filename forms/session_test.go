package forms

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringify(fields map[string]any) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func TestSession_RoundTripThroughHash(t *testing.T) {
	s := NewSession("confidentiality-agreement", 5, ModeFree, "ownerName", "termYears")
	require.NoError(t, s.State.Set("ownerName", "Acme Corp"))
	require.NoError(t, s.Seq.Goto(4))

	got, err := SessionFromFields(stringify(s.ToFields()))
	require.NoError(t, err)
	assert.Equal(t, "confidentiality-agreement", got.DocType)
	assert.Equal(t, s.State.Fields(), got.State.Fields())
	assert.Equal(t, 4, got.Seq.Current())
	assert.Equal(t, 5, got.Seq.Count())
	assert.Equal(t, ModeFree, got.Seq.Mode())
	assert.Equal(t, []int{1, 4}, got.Seq.VisitedSteps())
}

func TestSessionFromFields_ClampsStep(t *testing.T) {
	got, err := SessionFromFields(map[string]string{
		"doc_type": "bill-of-sale", "steps": "3", "step": "9", "mode": "linear", "visited": "1,2,7",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Seq.Current())
	assert.Equal(t, []int{1, 2, 3}, got.Seq.VisitedSteps())
}

func TestSessionFromFields_Corrupt(t *testing.T) {
	cases := []map[string]string{
		{},
		{"doc_type": "x", "steps": "a", "step": "1"},
		{"doc_type": "x", "steps": "2", "step": "?"},
		{"doc_type": "x", "steps": "2", "step": "1", "mode": "sideways"},
		{"doc_type": "x", "steps": "2", "step": "1", "visited": "1,b"},
	}
	for _, fields := range cases {
		_, err := SessionFromFields(fields)
		assert.ErrorIs(t, err, ErrCorruptSession, "%v", fields)
	}
}
