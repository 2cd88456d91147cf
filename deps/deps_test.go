package deps

import (
	"math"
	"testing"

	"github.com/boldui/core/protocol"

	"github.com/stretchr/testify/assert"
)

func TestNewTrackerHasNoWakeup(t *testing.T) {
	tr := New()
	assert.False(t, tr.HasWakeup())
	assert.True(t, math.IsInf(tr.NextWakeup, 1))
}

func TestRecordWakeupTakesMinimum(t *testing.T) {
	tr := New()
	two, three := 2.0, 3.0
	tr.RecordWakeup(&three)
	tr.RecordWakeup(&two)
	assert.True(t, tr.HasWakeup())
	assert.Equal(t, 2.0, tr.NextWakeup)
}

func TestRecordWakeupIgnoresNil(t *testing.T) {
	tr := New()
	tr.RecordWakeup(nil)
	assert.False(t, tr.HasWakeup())
}

func TestIntersects(t *testing.T) {
	tr := New()
	tr.RecordRead(VarID{Scene: 1, Key: "a"})

	writesHit := map[VarID]struct{}{{Scene: 1, Key: "a"}: {}}
	writesMiss := map[VarID]struct{}{{Scene: 1, Key: "b"}: {}}

	assert.True(t, tr.Intersects(writesHit))
	assert.False(t, tr.Intersects(writesMiss))
}

func TestReadsAndWrites(t *testing.T) {
	tr := New()
	v := VarID{Scene: protocol.LocalScene, Key: "x"}
	tr.RecordRead(v)
	tr.RecordWrite(v)
	_, readOk := tr.Reads[v]
	_, writeOk := tr.Writes[v]
	assert.True(t, readOk)
	assert.True(t, writeOk)
}
