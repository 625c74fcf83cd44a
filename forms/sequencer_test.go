package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencer_Clamping(t *testing.T) {
	for _, n := range []int{1, 2, 6, 13} {
		s := NewSequencer(n, ModeLinear)
		assert.Equal(t, 1, s.Current())
		for i := 0; i < n+5; i++ {
			s.Next()
		}
		assert.Equal(t, n, s.Current(), "next n=%d", n)
		assert.True(t, s.IsLast())
		for i := 0; i < n+5; i++ {
			s.Back()
		}
		assert.Equal(t, 1, s.Current(), "back n=%d", n)
		assert.True(t, s.IsFirst())
	}
}

func TestSequencer_LinearGeneration(t *testing.T) {
	s := NewSequencer(3, "")
	assert.Equal(t, ModeLinear, s.Mode())
	assert.False(t, s.CanGenerate())
	s.Next()
	s.Next()
	assert.True(t, s.CanGenerate())
	s.Back()
	assert.False(t, s.CanGenerate())
}

func TestSequencer_GotoLinearRejected(t *testing.T) {
	s := NewSequencer(4, ModeLinear)
	err := s.Goto(3)
	assert.ErrorIs(t, err, ErrLinearNavigation)
	assert.Equal(t, 1, s.Current())
}

func TestSequencer_FreeMode(t *testing.T) {
	s := NewSequencer(4, ModeFree)

	require.NoError(t, s.Goto(4))
	assert.Equal(t, 4, s.Current())
	assert.False(t, s.CanGenerate())

	assert.ErrorIs(t, s.Goto(0), ErrStepOutOfRange)
	assert.ErrorIs(t, s.Goto(5), ErrStepOutOfRange)
	assert.Equal(t, 4, s.Current())

	require.NoError(t, s.Goto(2))
	s.Next()
	assert.Equal(t, []int{1, 2, 3, 4}, s.VisitedSteps())
	assert.True(t, s.CanGenerate())
}

func TestSequencer_ZeroCount(t *testing.T) {
	s := NewSequencer(0, ModeLinear)
	assert.Equal(t, 1, s.Count())
	assert.True(t, s.CanGenerate())
	assert.False(t, s.Visited(2))
}

func TestSequencer_Reshape(t *testing.T) {
	s := NewSequencer(4, ModeFree)
	require.NoError(t, s.Goto(4))
	require.NoError(t, s.Goto(2))

	assert.False(t, s.Reshape(4, ModeFree))

	require.NoError(t, s.Goto(4))
	assert.True(t, s.Reshape(3, ModeFree))
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, 3, s.Current())
	assert.Equal(t, []int{1, 2, 3}, s.VisitedSteps())
	assert.True(t, s.CanGenerate())

	assert.True(t, s.Reshape(5, ModeLinear))
	assert.Equal(t, 3, s.Current())
	assert.Equal(t, ModeLinear, s.Mode())
	assert.False(t, s.CanGenerate())
	assert.False(t, s.Visited(5))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLinear, m)

	m, err = ParseMode("free")
	require.NoError(t, err)
	assert.Equal(t, ModeFree, m)

	_, err = ParseMode("random")
	assert.ErrorIs(t, err, ErrUnknownNavigation)
}
