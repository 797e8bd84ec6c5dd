package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualAdvance(t *testing.T) {
	m := NewManual(1000)
	assert.Equal(t, int64(1000), m.Now())

	m.Advance(2 * time.Second)
	assert.Equal(t, int64(3000), m.Now())
}

func TestManualSetForwardOnly(t *testing.T) {
	m := NewManual(5000)

	m.Set(9000)
	assert.Equal(t, int64(9000), m.Now())

	// Setting backwards is ignored; time never runs in reverse.
	m.Set(100)
	assert.Equal(t, int64(9000), m.Now())
}

func TestSystemTracksWallClock(t *testing.T) {
	before := time.Now().UnixMilli()
	got := System{}.Now()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}
