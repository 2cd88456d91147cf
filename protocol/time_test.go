package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimebaseElapsedMonotonic(t *testing.T) {
	tb := NewTimebase()
	first := tb.Elapsed()
	time.Sleep(2 * time.Millisecond)
	second := tb.Elapsed()
	assert.GreaterOrEqual(t, float64(second), float64(first))
}

func TestTimebaseWakeupAt(t *testing.T) {
	tb := NewTimebase()
	wake := tb.WakeupAt(1.5)
	assert.WithinDuration(t, tb.start.Add(1500*time.Millisecond), wake, time.Microsecond)
}
