package score

import (
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/jswain/partita/timemap"
)

// TimeSignature is an element of Score.TimeSignatures: a signature in
// force from Time onward. Time is in the score's current unit. Upper
// may be fractional; Lower is a power of two (4 means quarter note).
type TimeSignature struct {
	Time  float64
	Upper float64
	Lower int
}

// NewTimeSignature returns an Upper/Lower signature taking effect at
// time.
func NewTimeSignature(time, upper float64, lower int) *TimeSignature {
	return &TimeSignature{Time: time, Upper: upper, Lower: lower}
}

// Quarters is the duration of one full measure in quarters.
func (ts *TimeSignature) Quarters() float64 {
	return ts.Upper * 4 / float64(ts.Lower)
}

func (ts *TimeSignature) String() string {
	return fmt.Sprintf("TimeSignature(at %g, %g/%d)", ts.Time, ts.Upper, ts.Lower)
}

// Score is the root of the hierarchy and represents a musical work: a
// concurrence of Parts, normally all with onset zero and no parent.
// The Score owns the tempo map and the time signature list, and tracks
// whether its times are expressed in quarters or seconds.
//
// Extension attributes such as "title" or "composer" can be stored
// with Set.
type Score struct {
	GroupBase
	TimeMap        *timemap.TimeMap
	TimeSignatures []*TimeSignature
	unitsSeconds   bool
}

// Default tempo in quarters per minute for scores created without
// tempo information.
const DefaultQPM = 100

// NewScore creates a score at onset 0 with times in quarters, a
// constant default tempo and a 4/4 time signature at time zero.
func NewScore(content ...Event) *Score {
	s := &Score{
		TimeMap:        timemap.New(DefaultQPM),
		TimeSignatures: []*TimeSignature{NewTimeSignature(0, 4, 4)},
	}
	s.initGroup(s, 0, Unset, content, false)
	return s
}

func (s *Score) emptyCopy() Group {
	n := &Score{
		TimeMap:      s.TimeMap.Copy(),
		unitsSeconds: s.unitsSeconds,
	}
	for _, ts := range s.TimeSignatures {
		c := *ts
		n.TimeSignatures = append(n.TimeSignatures, &c)
	}
	n.EventBase = s.copyBase(n)
	return n
}

// Copy returns a deep copy of the score. Scores normally have no
// parent, so this is CopyInto(nil) under a friendlier name.
func (s *Score) Copy() *Score {
	return s.CopyInto(nil).(*Score)
}

// EmptyCopy returns a copy without content.
func (s *Score) EmptyCopy() *Score {
	return s.EmptyCopyInto(nil).(*Score)
}

// UnitsAreSeconds reports whether times are in seconds. This is the
// base case for the recursive Event method.
func (s *Score) UnitsAreSeconds() bool { return s.unitsSeconds }

// UnitsAreQuarters reports whether times are in quarters.
func (s *Score) UnitsAreQuarters() bool { return !s.unitsSeconds }

// ConvertToSeconds rewrites every onset and duration from quarters to
// seconds through the time map, in place. A score already in seconds
// is left alone.
func (s *Score) ConvertToSeconds() {
	if s.unitsSeconds {
		return
	}
	for _, ts := range s.TimeSignatures {
		ts.Time = s.TimeMap.QuarterToTime(ts.Time)
	}
	s.GroupBase.convertToSeconds(s.TimeMap)
	s.unitsSeconds = true
}

// ConvertToQuarters rewrites every onset and duration from seconds to
// quarters through the time map, in place.
func (s *Score) ConvertToQuarters() {
	if !s.unitsSeconds {
		return
	}
	for _, ts := range s.TimeSignatures {
		ts.Time = s.TimeMap.TimeToQuarter(ts.Time)
	}
	s.GroupBase.convertToQuarters(s.TimeMap)
	s.unitsSeconds = false
}

// AppendTimeSignature appends a time signature change. A change within
// 3ms of the final existing one replaces it.
func (s *Score) AppendTimeSignature(ts *TimeSignature) {
	last := s.TimeSignatures[len(s.TimeSignatures)-1]
	if math.Abs(last.Time-ts.Time) <= 0.003 {
		s.TimeSignatures = s.TimeSignatures[:len(s.TimeSignatures)-1]
	}
	s.TimeSignatures = append(s.TimeSignatures, ts)
}

// findTimeSignature returns the signature in effect at time when.
func (s *Score) findTimeSignature(when float64) *TimeSignature {
	for i := len(s.TimeSignatures) - 1; i >= 0; i-- {
		if s.TimeSignatures[i].Time <= when {
			return s.TimeSignatures[i]
		}
	}
	// the list always starts at time zero
	return s.TimeSignatures[0]
}

// MergeTiedNotes returns a deep copy of the score in which each chain
// of tied notes is a single note with the chain's total duration.
func (s *Score) MergeTiedNotes() *Score {
	return s.MergeTied(nil).(*Score)
}

// Flatten returns a deep copy reduced to Parts containing only Notes,
// with ties merged. With collapse, all parts are merged into a single
// part with notes ordered by onset then pitch; the collapsed part
// keeps the instrument name only if all source parts agree on it.
func (s *Score) Flatten(collapse bool) *Score {
	flat := s.MergeTiedNotes()
	if !collapse {
		for _, part := range ListAll[*Part](flat) {
			part.flattenInPlace()
		}
		return flat
	}

	instrument := ""
	seen := false
	for _, part := range ListAll[*Part](flat) {
		switch {
		case !seen:
			instrument = part.Instrument
			seen = true
		case instrument != part.Instrument:
			instrument = ""
		}
	}

	newPart := NewPart(nil, flat.Onset(), "", instrument)
	notes, _ := flat.sortedNotes(false)
	flat.content = []Event{newPart}
	newPart.setParent(flat)
	for _, n := range notes {
		n.setParent(newPart)
		newPart.content = append(newPart.content, n)
	}
	newPart.sequential = true

	// the part ends at the max offset over the original parts
	offset := 0.0
	for _, part := range ListAll[*Part](s) {
		if off := part.Offset(); off > offset {
			offset = off
		}
	}
	newPart.SetDuration(offset - flat.Onset())
	return flat
}

// PartFilter selects parts for CollapseParts. Use one of the
// constructors; a nil *PartFilter selects every part.
type PartFilter struct {
	index      int
	number     string
	instrument string
}

// PartIndex selects the part at zero-based index i.
func PartIndex(i int) *PartFilter { return &PartFilter{index: i} }

// PartNumber selects parts whose Number matches.
func PartNumber(number string) *PartFilter {
	return &PartFilter{index: -1, number: number}
}

// PartInstrument selects parts whose Instrument matches.
func PartInstrument(instrument string) *PartFilter {
	return &PartFilter{index: -1, instrument: instrument}
}

func (f *PartFilter) matches(i int, p *Part) bool {
	if f == nil {
		return true
	}
	if f.number != "" {
		return p.Number == f.number
	}
	if f.instrument != "" {
		return p.Instrument == f.instrument
	}
	return i == f.index
}

// StaffFilter selects staffs for CollapseParts. A nil *StaffFilter
// selects every staff of the selected parts.
type StaffFilter struct {
	index  int
	number int
}

// StaffIndex selects the staff at zero-based index i within its part.
func StaffIndex(i int) *StaffFilter { return &StaffFilter{index: i, number: 0} }

// StaffNumber selects staffs whose Number matches.
func StaffNumber(number int) *StaffFilter {
	return &StaffFilter{index: -1, number: number}
}

func (f *StaffFilter) matches(i int, st *Staff) bool {
	if f == nil {
		return true
	}
	if f.number != 0 {
		return st.Number == f.number
	}
	return i == f.index
}

// CollapseParts merges the notes of the selected parts (and optionally
// staffs) into a new flat score with a single part. Selecting a staff
// requires a part selection, and is an error on a score without
// staffs. Flatten is usually preferred; CollapseParts exists to pull
// out an individual part or staff, e.g. only the left hand of a piano
// part.
//
// With hasTies false the score must already be tie-free, which skips
// per-part tie merging.
func (s *Score) CollapseParts(part *PartFilter, staff *StaffFilter, hasTies bool) (*Score, error) {
	if staff != nil && part == nil {
		return nil, fmt.Errorf("score: staff selection requires part selection")
	}

	result := s.EmptyCopy()
	var selected []Group
	for i, p := range ListAll[*Part](s) {
		if !part.matches(i, p) {
			continue
		}
		if hasTies {
			// ties can cross staffs, so merging happens per part; the
			// merged parts live in the result score until replaced below
			p = p.MergeTied(result).(*Part)
		}
		if staff == nil {
			selected = append(selected, p)
			continue
		}
		staffs := ListAll[*Staff](p)
		if len(staffs) == 0 {
			return nil, fmt.Errorf("score: staff selection on a score without staffs")
		}
		for j, st := range staffs {
			if staff.matches(j, st) {
				selected = append(selected, st)
			}
		}
	}

	var notes []*Note
	for _, grp := range selected {
		notes = append(notes, ListAll[*Note](grp)...)
	}
	newPart := NewPart(nil, 0, "", "")
	if !hasTies {
		// the notes still belong to the source score, so copy them
		copies := make([]*Note, 0, len(notes))
		for _, n := range notes {
			copies = append(copies, n.CopyInto(nil).(*Note))
		}
		notes = copies
	}
	for _, n := range notes {
		n.setParent(newPart)
	}
	slices.SortStableFunc(notes, noteLess)
	for _, n := range notes {
		newPart.content = append(newPart.content, n)
	}
	newPart.sequential = true
	result.content = []Event{newPart}
	newPart.setParent(result)
	return result, nil
}

// GetSortedNotes returns the score's notes ordered by onset then
// pitch. By default the score is copied and ties merged, so the notes
// are merged copies. With hasTies false the score must already be
// tie-free and the original notes are returned.
func (s *Score) GetSortedNotes(hasTies bool) ([]*Note, error) {
	if hasTies {
		flat := s.Flatten(true)
		return ListAll[*Note](flat), nil
	}
	return s.sortedNotes(true)
}

// CalcDifferences calls Part.CalcDifferences on every part. Since the
// notes must be tie-free and non-concurrent, the score will normally
// be flat.
func (s *Score) CalcDifferences(what []string) ([][]*Note, error) {
	var out [][]*Note
	for _, part := range ListAll[*Part](s) {
		notes, err := part.CalcDifferences(what)
		if err != nil {
			return nil, err
		}
		out = append(out, notes)
	}
	return out, nil
}

// IsFlat reports whether the score conforms to the strict flat
// hierarchy Score-Part-Note with no ties.
func (s *Score) IsFlat() bool {
	for _, ev := range s.content {
		switch e := ev.(type) {
		case *Score, *Staff, *Measure, *Note, *Rest, *Chord:
			return false
		case *Part:
			if !e.IsFlat() {
				return false
			}
		}
	}
	return true
}

// IsFlatAndCollapsed reports whether the score is flat with a single
// part.
func (s *Score) IsFlatAndCollapsed() bool {
	return s.PartCount() == 1 && s.IsFlat()
}

// IsWellFormedFullScore reports whether the score conforms to the
// strict full hierarchy Score-Part-Staff-Measure-(Note|Rest|Chord).
func (s *Score) IsWellFormedFullScore() bool {
	for _, ev := range s.content {
		switch e := ev.(type) {
		case *Score, *Staff, *Measure, *Note, *Rest, *Chord:
			return false
		case *Part:
			if !e.IsWellFormedFullPart() {
				return false
			}
		}
	}
	return true
}

// NoteContainers returns the groups that directly hold notes: the
// Staffs of a full score, the Parts of a flat one, or a mix when parts
// differ. Empty parts are skipped.
func (s *Score) NoteContainers() []Group {
	var containers []Group
	for _, part := range ListAll[*Part](s) {
		for _, ev := range part.Content() {
			if _, ok := ev.(*Staff); ok {
				for _, st := range ListAll[*Staff](part) {
					containers = append(containers, st)
				}
				break
			}
			if _, ok := ev.(*Note); ok {
				containers = append(containers, part)
				break
			}
		}
	}
	return containers
}

// Pack removes all gaps: every part is moved to start at onset. For a
// full score pass sequential false, so staffs stay concurrent; for a
// flat score pass true, so each part's notes run end to start. The
// score's own onset is unchanged. Returns the new duration.
func (s *Score) Pack(onset float64, sequential bool) float64 {
	dur := 0.0
	for _, ev := range s.content {
		ev.SetOnset(onset)
		switch e := ev.(type) {
		case *Part:
			if d := e.packContent(onset, sequential); d > dur {
				dur = d
			}
		case Group:
			if d := e.pack(onset); d > dur {
				dur = d
			}
		default:
			if ev.Duration() > dur {
				dur = ev.Duration()
			}
		}
	}
	s.duration = dur
	return dur
}

// PartCount returns the number of parts.
func (s *Score) PartCount() int {
	return len(ListAll[*Part](s))
}

// PartsAreMonophonic reports whether no part has overlapping notes.
func (s *Score) PartsAreMonophonic() bool {
	for _, part := range ListAll[*Part](s) {
		if !part.IsMonophonic() {
			return false
		}
	}
	return true
}

// RemoveMeasures returns a new score with ties merged and all measures
// removed, notes lifted into their staffs. Unlike Flatten this keeps
// the staff separation.
func (s *Score) RemoveMeasures() *Score {
	result := s.EmptyCopy()
	for _, ev := range s.content {
		if part, ok := ev.(*Part); ok {
			part.RemoveMeasures(result, true)
		} else {
			ev.CopyInto(result)
		}
	}
	return result
}

func (s *Score) String() string {
	units := "quarters"
	if s.unitsSeconds {
		units = "seconds"
	}
	return fmt.Sprintf("Score(%s, units=%s)", s.eventTimes(), units)
}

// Show prints the score, its time map and signatures, and the subtree.
func (s *Score) Show(w io.Writer, indent int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", indent), s)
	s.TimeMap.Show(w, indent+4)
	fmt.Fprintf(w, "%stime_signatures [", strings.Repeat(" ", indent+4))
	for i, ts := range s.TimeSignatures {
		if i > 0 {
			fmt.Fprint(w, " ")
		}
		fmt.Fprint(w, ts)
	}
	fmt.Fprintln(w, "]")
	for _, ev := range s.content {
		ev.Show(w, indent+4)
	}
}

