package score

import (
	"fmt"
)

// Part models an instrument's music: a concurrence of Staffs in a full
// score, or a plain sequence of Notes in a flat score. Parts are
// elements of a Score.
//
// Number is the part's designation from the source encoding (e.g.
// "22a"), distinct from its index in the score. Instrument is the
// instrument name, if known. A single MIDI program number, when known,
// is stored in the info map under "midi_program".
type Part struct {
	GroupBase
	Number     string
	Instrument string
}

// NewPart creates a part whose content (normally Staffs) starts
// concurrently at onset, and inserts it into parent unless parent is
// nil.
func NewPart(parent Group, onset float64, number, instrument string, content ...Event) *Part {
	p := &Part{Number: number, Instrument: instrument}
	p.initGroup(p, onset, Unset, content, false)
	p.attach(parent)
	return p
}

// NewFlatPart creates a part for a flat score: content (normally
// Notes) with unset onsets is placed sequentially, each note at the
// offset of the previous one.
func NewFlatPart(parent Group, onset float64, number, instrument string, content ...Event) *Part {
	p := &Part{Number: number, Instrument: instrument}
	p.initGroup(p, onset, Unset, content, true)
	p.attach(parent)
	return p
}

func (p *Part) emptyCopy() Group {
	n := &Part{Number: p.Number, Instrument: p.Instrument}
	n.EventBase = p.copyBase(n)
	n.sequential = p.sequential
	return n
}

// IsWellFormedFullPart reports whether the part conforms to the strict
// Part-Staff-Measure-(Note|Rest|Chord) hierarchy.
func (p *Part) IsWellFormedFullPart() bool {
	for _, ev := range p.content {
		switch e := ev.(type) {
		case *Score, *Part, *Measure, *Note, *Rest, *Chord:
			return false
		case *Staff:
			if !e.isWellFormed() {
				return false
			}
		}
	}
	return true
}

// IsFlat reports whether the part contains only notes without ties.
func (p *Part) IsFlat() bool {
	for _, ev := range p.content {
		switch e := ev.(type) {
		case *Score, *Part, *Staff, *Measure, *Rest, *Chord:
			return false
		case *Note:
			if e.Tie != nil {
				return false
			}
		}
	}
	return true
}

// Flatten returns a copy of the part whose content is only Notes, with
// tied chains merged and notes sorted by onset then pitch.
func (p *Part) Flatten() *Part {
	return p.MergeTied(nil).(*Part).flattenInPlace()
}

// flattenInPlace assumes ties are already merged and the part is safe
// to modify.
func (p *Part) flattenInPlace() *Part {
	notes, _ := p.sortedNotes(false)
	for _, n := range notes {
		n.setParent(p)
	}
	p.content = p.content[:0]
	for _, n := range notes {
		p.content = append(p.content, n)
	}
	p.sequential = true
	return p
}

// RemoveMeasures returns a part whose staffs hold their notes and key
// signatures directly, with measures removed. With hasTies the part is
// first copied (into s, if non-nil) via MergeTied; otherwise the part
// must be tie-free already and is modified in place.
func (p *Part) RemoveMeasures(s *Score, hasTies bool) *Part {
	part := p
	if hasTies {
		var parent Group
		if s != nil {
			parent = s
		}
		part = p.MergeTied(parent).(*Part)
	}
	for _, ev := range part.content {
		if staff, ok := ev.(*Staff); ok {
			staff.RemoveMeasures()
		}
	}
	return part
}

// Difference kinds accepted by CalcDifferences.
const (
	DiffIOI      = "ioi"       // inter-onset interval to the previous note
	DiffIOIRatio = "ioi_ratio" // ratio of successive IOIs
	DiffInterval = "interval"  // pitch interval in semitones
)

// CalcDifferences computes inter-onset intervals, IOI ratios and pitch
// intervals between successive notes, storing the values in each
// note's info map under the keys above. Values that do not exist (the
// first note's IOI, the first two notes' IOI ratio) are stored as nil.
// The part must be monophonic and tie-free. Returns the sorted notes.
func (p *Part) CalcDifferences(what []string) ([]*Note, error) {
	doIOI, doRatio, doInterval := false, false, false
	for _, w := range what {
		switch w {
		case DiffIOI:
			doIOI = true
		case DiffIOIRatio:
			doIOI = true
			doRatio = true
		case DiffInterval:
			doInterval = true
		}
	}
	if !doIOI && !doRatio && !doInterval {
		return nil, fmt.Errorf("score: what must contain %q, %q or %q",
			DiffIOI, DiffIOIRatio, DiffInterval)
	}
	notes, err := p.sortedNotes(true)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, nil
	}
	if doIOI {
		notes[0].Set(DiffIOI, nil)
	}
	if doRatio {
		notes[0].Set(DiffIOIRatio, nil)
	}
	if doInterval {
		notes[0].Set(DiffInterval, nil)
	}
	var prevIOI float64
	havePrevIOI := false
	prev := notes[0]
	for _, n := range notes[1:] {
		ioi := n.Onset() - prev.Onset()
		if doIOI {
			if ioi <= 0 {
				return nil, fmt.Errorf("score: part is not monophonic; cannot compute IOIs")
			}
			n.Set(DiffIOI, ioi)
		}
		if doRatio {
			if havePrevIOI {
				n.Set(DiffIOIRatio, ioi/prevIOI)
			} else {
				n.Set(DiffIOIRatio, nil)
			}
			prevIOI = ioi
			havePrevIOI = true
		}
		if doInterval {
			n.Set(DiffInterval, n.KeyNum()-prev.KeyNum())
		}
		prev = n
	}
	return notes, nil
}

func (p *Part) String() string {
	nstr := ""
	if p.Number != "" {
		nstr = fmt.Sprintf(", number=%s", p.Number)
	}
	istr := ""
	if p.Instrument != "" {
		istr = fmt.Sprintf(", instrument=%s", p.Instrument)
	}
	return fmt.Sprintf("Part(%s%s%s)", p.eventTimes(), nstr, istr)
}
