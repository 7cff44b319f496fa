package rabbitmq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayAppliesMultiplier(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, 100*time.Millisecond, backoffDelay(base, 2.0, 0))
	assert.Equal(t, 200*time.Millisecond, backoffDelay(base, 2.0, 1))
	assert.Equal(t, 400*time.Millisecond, backoffDelay(base, 2.0, 2))

	// A configured multiplier changes the growth rate.
	assert.Equal(t, 150*time.Millisecond, backoffDelay(base, 1.5, 1))
	assert.Equal(t, 225*time.Millisecond, backoffDelay(base, 1.5, 2))
}
