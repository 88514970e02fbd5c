package timemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstantTempo(t *testing.T) {
	tm := New(120)
	assert.Equal(t, 0.5, tm.QuarterToTime(1))
	assert.Equal(t, 2.0, tm.QuarterToTime(4))
	assert.Equal(t, 4.0, tm.TimeToQuarter(2.0))
}

func TestTempoChange(t *testing.T) {
	tm := New(120)
	tm.AppendChange(4.0, 60.0) // slow to 60 qpm at quarter 4

	// quarter 4 is at 2s; quarter 5 takes one more second at 60 qpm
	assert.InDelta(t, 3.0, tm.QuarterToTime(5.0), 1e-9)
	assert.InDelta(t, 5.0, tm.TimeToQuarter(3.0), 1e-9)

	assert.Equal(t, 120.0, tm.QuarterToTempo(3.9))
	assert.Equal(t, 60.0, tm.QuarterToTempo(4.0)) // tempo after the change
	assert.Equal(t, 60.0, tm.TimeToTempo(10.0))
}

func TestRoundTrip(t *testing.T) {
	tm := New(90)
	tm.AppendChange(2.0, 180.0)
	tm.AppendChange(6.5, 45.0)
	for _, q := range []float64{0, 0.25, 1.9, 2.0, 2.1, 6.5, 10, 100} {
		assert.InDelta(t, q, tm.TimeToQuarter(tm.QuarterToTime(q)), 1e-9)
	}
}

func TestNegativePassThrough(t *testing.T) {
	tm := New(120)
	assert.Equal(t, -1.5, tm.QuarterToTime(-1.5))
	assert.Equal(t, -2.0, tm.TimeToQuarter(-2.0))
}

func TestAppendChangeMonotonic(t *testing.T) {
	tm := New(100)
	tm.AppendChange(4.0, 90.0)
	assert.Panics(t, func() { tm.AppendChange(2.0, 120.0) })

	// re-appending at the final breakpoint just replaces the tempo
	tm.AppendChange(4.0, 120.0)
	assert.Equal(t, 2, tm.Len())
	assert.Equal(t, 120.0, tm.QuarterToTempo(5.0))
}

func TestCopyIsIndependent(t *testing.T) {
	tm := New(100)
	tm.AppendChange(4.0, 50.0)
	c := tm.Copy()
	c.AppendChange(8.0, 200.0)
	assert.Equal(t, 2, tm.Len())
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 50.0, tm.QuarterToTempo(100))
}
