package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteflow-ai/noteflow/core"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}
}

func TestCompleteWithRetry_SucceedsAfterTransientFailure(t *testing.T) {
	c := NewScriptedClient()
	c.EnqueueError(errors.New("transient"))
	c.Enqueue("yes")

	out, err := CompleteWithRetry(context.Background(), c, fastPolicy(3), "classify", []core.Message{core.UserMessage("q")})
	require.NoError(t, err)
	assert.Equal(t, "yes", out)
	assert.Equal(t, 2, c.Calls())
}

func TestCompleteWithRetry_BoundedAttempts(t *testing.T) {
	c := NewScriptedClient()
	c.EnqueueError(errors.New("e1"), errors.New("e2"), errors.New("e3"), errors.New("e4"))

	_, err := CompleteWithRetry(context.Background(), c, fastPolicy(3), "classify", nil)
	assert.Error(t, err)
	assert.Equal(t, 3, c.Calls())
}

func TestCompleteWithRetry_CancelledContextIsPermanent(t *testing.T) {
	c := NewScriptedClient()
	c.EnqueueError(errors.New("boom"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CompleteWithRetry(ctx, c, fastPolicy(5), "classify", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScriptedClient_ExactPromptMatch(t *testing.T) {
	c := NewScriptedClient()
	c.AddResponse("hello", "world")

	out, err := c.Complete(context.Background(), "", []core.Message{core.UserMessage("hello")})
	require.NoError(t, err)
	assert.Equal(t, "world", out)

	_, err = c.Complete(context.Background(), "", []core.Message{core.UserMessage("unknown")})
	assert.Error(t, err)
}
