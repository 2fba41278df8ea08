package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	g := NewGate(true)
	assert.True(t, g.Enabled())

	g.Set(true)
	assert.Zero(t, g.Changes())
	assert.Empty(t, g.Changed())

	// flips coalesce into one pending notification
	g.Set(false)
	g.Set(true)
	g.Set(false)
	assert.False(t, g.Enabled())
	assert.Equal(t, int64(3), g.Changes())
	assert.Len(t, g.Changed(), 1)

	<-g.Changed()
	assert.Empty(t, g.Changed())
}
