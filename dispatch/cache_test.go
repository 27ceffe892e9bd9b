package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noteflow-ai/noteflow/core"
)

func TestKey_ScopedPerAgent(t *testing.T) {
	history := []core.Message{core.UserMessage("hi")}

	assert.Equal(t, Key("notes", "delete it", history), Key("notes", "delete it", history))
	assert.NotEqual(t, Key("notes", "delete it", history), Key("tasks", "delete it", history))
	assert.NotEqual(t, Key("notes", "delete it", history), Key("notes", "keep it", history))
}

func TestKey_UsesOnlyRecentHistory(t *testing.T) {
	recent := []core.Message{
		core.UserMessage("show my notes"),
		core.AssistantMessage("here they are"),
	}
	long := append([]core.Message{
		core.UserMessage("unrelated old turn"),
		core.AssistantMessage("ok"),
	}, recent...)

	assert.Equal(t, Key("notes", "delete it", recent), Key("notes", "delete it", long),
		"history beyond the last two messages must not affect the key")
	assert.NotEqual(t, Key("notes", "delete it", nil), Key("notes", "delete it", recent))
}

func TestCapabilityCache_PutGet(t *testing.T) {
	c := NewCapabilityCache(8, 0)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Put("k", true)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.True(t, v)
	assert.Equal(t, 1, c.Len())
}

func TestCapabilityCache_BoundedBySize(t *testing.T) {
	c := NewCapabilityCache(2, 0)

	c.Put("a", true)
	c.Put("b", false)
	c.Put("c", true)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry must be evicted at capacity")
}

func TestCapabilityCache_TTLExpiry(t *testing.T) {
	c := NewCapabilityCache(8, 10*time.Millisecond)

	c.Put("k", true)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}
