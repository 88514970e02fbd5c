// Package timemap maintains the mapping between score time in quarters
// and performed time in seconds, as a piece-wise linear function over
// tempo-change breakpoints. It encodes the information of a MIDI tempo
// track. Since tempo is not continuous, the tempo at a breakpoint is the
// tempo just after it.
package timemap

import (
	"fmt"
	"io"
	"strings"
)

// Breakpoint is one (time, quarter) pair of the mapping.
type Breakpoint struct {
	Time    float64 // seconds
	Quarter float64 // quarter-note position
}

// TimeMap converts between quarters and seconds. The breakpoint list
// always starts with (0, 0) and is strictly increasing in quarter
// position; the tempo after the final breakpoint extrapolates forever.
type TimeMap struct {
	changes   []Breakpoint
	lastTempo float64 // quarters per second past the final breakpoint
}

// New returns a TimeMap with a single constant tempo in quarters per
// minute.
func New(qpm float64) *TimeMap {
	return &TimeMap{
		changes:   []Breakpoint{{0, 0}},
		lastTempo: qpm / 60.0,
	}
}

// Copy returns an independent copy of the map.
func (tm *TimeMap) Copy() *TimeMap {
	c := &TimeMap{
		changes:   make([]Breakpoint, len(tm.changes)),
		lastTempo: tm.lastTempo,
	}
	copy(c.changes, tm.changes)
	return c
}

// Len is the number of breakpoints, including the implicit one at zero.
func (tm *TimeMap) Len() int {
	return len(tm.changes)
}

// At returns breakpoint i in increasing quarter order.
func (tm *TimeMap) At(i int) Breakpoint {
	return tm.changes[i]
}

// TimeAt returns the time in seconds of breakpoint i.
func (tm *TimeMap) TimeAt(i int) float64 {
	return tm.changes[i].Time
}

// AppendChange appends a tempo change at the given quarter. The quarter
// must not precede the final existing breakpoint; tempo changes can only
// be appended, never inserted. The new tempo (in quarters per minute)
// holds from quarter onward until a later change is appended.
func (tm *TimeMap) AppendChange(quarter, qpm float64) {
	last := tm.changes[len(tm.changes)-1].Quarter
	if quarter < last {
		panic(fmt.Sprintf(
			"timemap: tempo change at quarter %g precedes final breakpoint %g",
			quarter, last))
	}
	if quarter > last {
		tm.changes = append(tm.changes, Breakpoint{
			Time:    tm.QuarterToTime(quarter),
			Quarter: quarter,
		})
	}
	tm.lastTempo = qpm / 60.0
}

// TempoAt returns the tempo in quarters per minute just after breakpoint
// index i.
func (tm *TimeMap) TempoAt(i int) float64 {
	if i < 0 {
		panic("timemap: breakpoint index must be non-negative")
	}
	if i >= len(tm.changes)-1 {
		// at or past the final breakpoint: extrapolate
		return tm.lastTempo * 60.0
	}
	b0 := tm.changes[i]
	b1 := tm.changes[i+1]
	return (b1.Quarter - b0.Quarter) * 60.0 / (b1.Time - b0.Time)
}

// quarterToInsertIndex finds the index of the first breakpoint whose
// quarter is strictly greater than quarter.
func (tm *TimeMap) quarterToInsertIndex(quarter float64) int {
	i := 0
	for i < len(tm.changes) && quarter >= tm.changes[i].Quarter {
		i++
	}
	return i
}

// timeToInsertIndex finds the index of the first breakpoint whose time is
// strictly greater than time.
func (tm *TimeMap) timeToInsertIndex(time float64) int {
	i := 0
	for i < len(tm.changes) && time >= tm.changes[i].Time {
		i++
	}
	return i
}

// QuarterToTime converts a quarter-note position to seconds. Negative
// positions pass through unchanged (as if the tempo before zero were
// 60 qpm).
func (tm *TimeMap) QuarterToTime(quarter float64) float64 {
	if quarter <= 0 {
		return quarter
	}
	i := tm.quarterToInsertIndex(quarter)
	b := tm.changes[i-1]
	return b.Time + (quarter-b.Quarter)*60.0/tm.TempoAt(i-1)
}

// TimeToQuarter converts seconds to a quarter-note position. Negative
// times pass through unchanged.
func (tm *TimeMap) TimeToQuarter(time float64) float64 {
	if time <= 0 {
		return time
	}
	i := tm.timeToInsertIndex(time)
	b := tm.changes[i-1]
	return b.Quarter + (time-b.Time)*tm.TempoAt(i-1)/60.0
}

// QuarterToTempo returns the tempo in qpm at a quarter position; at a
// change point this is the tempo after the change.
func (tm *TimeMap) QuarterToTempo(quarter float64) float64 {
	return tm.TempoAt(tm.quarterToInsertIndex(quarter) - 1)
}

// TimeToTempo returns the tempo in qpm at a time in seconds; at a change
// point this is the tempo after the change.
func (tm *TimeMap) TimeToTempo(time float64) float64 {
	return tm.TempoAt(tm.timeToInsertIndex(time) - 1)
}

// Show writes a one-line summary of the map.
func (tm *TimeMap) Show(w io.Writer, indent int) {
	fmt.Fprintf(w, "%sTimeMap: [ ", strings.Repeat(" ", indent))
	for i, b := range tm.changes {
		fmt.Fprintf(w, "(%.2g, %.3gs, %.3gqpm) ", b.Quarter, b.Time, tm.TempoAt(i))
	}
	fmt.Fprintln(w, "]")
}
