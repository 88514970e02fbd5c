// Package score implements a hierarchical symbolic music representation:
// a Score contains Parts, Parts contain Staffs (or Notes, when flat),
// Staffs contain Measures, and Measures contain Notes, Rests and Chords.
// Every element is an Event with an onset and a duration, measured in
// quarters or in seconds depending on the owning Score's current unit.
//
// Onsets are optional at construction time. A group resolves the unset
// onsets of its children when they are added: sequence groups (Measure,
// Staff) place each child at the offset of the previous one, concurrence
// groups (Chord, Part, Score) place every child at the group's own onset.
// While a group's own onset is still unset, its children's onsets are
// relative times; the first assignment of a real onset to the group
// shifts the whole subtree into absolute time. This happens only on the
// first unset-to-set transition.
//
// The tree is single-owner: an Event belongs to at most one Group, and
// inserting an already-owned Event panics. Nothing here is safe for
// concurrent mutation; callers who share a Score across goroutines must
// serialize access themselves.
package score

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jswain/partita/timemap"
)

// Unset is the sentinel for an onset that has not been resolved yet.
// Test with IsUnset, never with ==.
var Unset = math.NaN()

// IsUnset reports whether t is the Unset sentinel.
func IsUnset(t float64) bool {
	return math.IsNaN(t)
}

// Event is anything that happens in time: Note, Rest, Clef,
// KeySignature, or one of the Group types. The unexported methods close
// the hierarchy to this package.
type Event interface {
	// Parent returns the owning group, or nil.
	Parent() Group
	// Onset returns the start time. It panics if the onset was never
	// resolved; use HasOnset to test first.
	Onset() float64
	HasOnset() bool
	// SetOnset assigns the start time. On a group whose onset was unset,
	// the first assignment shifts all content by the new onset.
	SetOnset(onset float64)
	Duration() float64
	SetDuration(d float64)
	// Offset is onset + duration; SetOffset back-computes the duration.
	Offset() float64
	SetOffset(off float64)
	// TimeShift adds delta to the onset, recursively for groups.
	TimeShift(delta float64) Event
	// Quantize snaps onset and offset to multiples of 1/divisions and
	// rederives the duration; see Score.Quantize for the full contract.
	Quantize(divisions int)
	// CopyInto returns a deep copy, inserted into parent unless parent
	// is nil. Pitch values are shared; tie links are preserved as-is and
	// may point outside the copied subtree.
	CopyInto(parent Group) Event
	// Get, Set and Has access the open info map for application
	// extension attributes. The map is allocated on first Set.
	Get(key string, def any) any
	Set(key string, val any) Event
	Has(key string) bool
	// UnitsAreSeconds reports the owning Score's current unit; false
	// when the event is not in a Score.
	UnitsAreSeconds() bool
	UnitsAreQuarters() bool
	// Show writes an indented description of the event (and, for
	// groups, its subtree) to w.
	Show(w io.Writer, indent int)
	String() string

	setParent(p Group)
	convertToSeconds(tm *timemap.TimeMap)
	convertToQuarters(tm *timemap.TimeMap)
}

// EventBase carries the state shared by every Event. The self reference
// is set by the concrete constructors so that shared algorithms can
// dispatch back to the concrete type.
type EventBase struct {
	self     Event
	parent   Group
	onset    float64 // NaN while unset
	duration float64
	info     map[string]any
}

func (e *EventBase) initEvent(self Event, onset, duration float64) {
	e.self = self
	e.onset = onset
	e.duration = duration
}

// attach inserts self into parent when parent is non-nil. Called at the
// end of every constructor.
func (e *EventBase) attach(parent Group) {
	if parent != nil {
		parent.Insert(e.self)
	}
}

func (e *EventBase) Parent() Group { return e.parent }

func (e *EventBase) setParent(p Group) { e.parent = p }

func (e *EventBase) Onset() float64 {
	if IsUnset(e.onset) {
		panic("score: onset time is not set")
	}
	return e.onset
}

func (e *EventBase) HasOnset() bool { return !IsUnset(e.onset) }

// SetOnset on a plain Event is simple assignment. GroupBase overrides
// this to shift content on the first unset-to-set transition.
func (e *EventBase) SetOnset(onset float64) {
	if IsUnset(onset) {
		panic("score: onset must be a number; only a constructor can leave it unset")
	}
	e.onset = onset
}

func (e *EventBase) Duration() float64     { return e.duration }
func (e *EventBase) SetDuration(d float64) { e.duration = d }

func (e *EventBase) Offset() float64 {
	return e.Onset() + e.duration
}

func (e *EventBase) SetOffset(off float64) {
	e.duration = off - e.Onset()
}

// TimeShift changes the onset by delta. GroupBase overrides this to
// shift content as well.
func (e *EventBase) TimeShift(delta float64) Event {
	e.onset = e.Onset() + delta
	return e.self
}

// Set stores an extension attribute, allocating the info map on first
// use. Returns the event for chaining.
func (e *EventBase) Set(key string, val any) Event {
	if e.info == nil {
		e.info = make(map[string]any)
	}
	e.info[key] = val
	return e.self
}

// Get returns the extension attribute for key, or def if absent.
func (e *EventBase) Get(key string, def any) any {
	if e.info == nil {
		return def
	}
	if v, ok := e.info[key]; ok {
		return v
	}
	return def
}

// Has reports whether the extension attribute exists.
func (e *EventBase) Has(key string) bool {
	if e.info == nil {
		return false
	}
	_, ok := e.info[key]
	return ok
}

func (e *EventBase) UnitsAreSeconds() bool {
	if e.parent == nil {
		return false
	}
	return e.parent.UnitsAreSeconds()
}

func (e *EventBase) UnitsAreQuarters() bool {
	if e.parent == nil {
		return false
	}
	return e.parent.UnitsAreQuarters()
}

// copyBase duplicates the base state for a copy: same times, deep-copied
// info map, no parent.
func (e *EventBase) copyBase(self Event) EventBase {
	c := EventBase{
		self:     self,
		onset:    e.onset,
		duration: e.duration,
	}
	if e.info != nil {
		c.info = make(map[string]any, len(e.info))
		for k, v := range e.info {
			c.info[k] = v
		}
	}
	return c
}

// quantizeSpan snaps the onset and offset to the grid and rederives the
// duration: the leaf quantization rule. An originally zero duration is
// preserved (markers, grace notes); a non-zero duration that would snap
// to zero becomes one quantum. Note overrides Quantize to add the
// tie-collapsing cases.
func (e *EventBase) quantizeSpan(divisions int) {
	if !e.HasOnset() {
		panic("score: cannot quantize an event with unset onset")
	}
	q := float64(divisions)
	e.onset = math.Round(e.onset*q) / q
	if e.duration == 0 {
		return
	}
	qoff := math.Round((e.onset+e.duration)*q) / q
	e.duration = qoff - e.onset
	if e.duration == 0 {
		e.duration = 1 / q
	}
}

func (e *EventBase) Quantize(divisions int) {
	e.quantizeSpan(divisions)
}

// convertToSeconds rewrites onset and duration through the time map.
// The duration is recomputed from the converted onset and offset rather
// than scaled, because tempo may vary across the event's span.
func (e *EventBase) convertToSeconds(tm *timemap.TimeMap) {
	onset := tm.QuarterToTime(e.Onset())
	offset := tm.QuarterToTime(e.Offset())
	e.onset = onset
	e.duration = offset - onset
}

func (e *EventBase) convertToQuarters(tm *timemap.TimeMap) {
	onset := tm.TimeToQuarter(e.Onset())
	offset := tm.TimeToQuarter(e.Offset())
	e.onset = onset
	e.duration = offset - onset
}

// Show prints one line for a leaf event.
func (e *EventBase) Show(w io.Writer, indent int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", indent), e.self.String())
}

// eventTimes renders "onset=..., duration=..." for String methods.
func (e *EventBase) eventTimes() string {
	return fmt.Sprintf("%s, duration=%0.3f", e.eventOnset(), e.duration)
}

func (e *EventBase) eventOnset() string {
	if IsUnset(e.onset) {
		return "onset=unset"
	}
	return fmt.Sprintf("onset=%0.3f", e.onset)
}

// PartOf returns the Part containing e, or nil.
func PartOf(e Event) *Part {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if part, ok := p.(*Part); ok {
			return part
		}
	}
	return nil
}

// StaffOf returns the Staff containing e, or nil.
func StaffOf(e Event) *Staff {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if staff, ok := p.(*Staff); ok {
			return staff
		}
	}
	return nil
}

// MeasureOf returns the Measure containing e, or nil.
func MeasureOf(e Event) *Measure {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if m, ok := p.(*Measure); ok {
			return m
		}
	}
	return nil
}

// ScoreOf returns the Score containing e, or nil.
func ScoreOf(e Event) *Score {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if s, ok := p.(*Score); ok {
			return s
		}
	}
	return nil
}
