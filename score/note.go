package score

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jswain/partita/pitch"
)

// Note is a pitched (or unpitched, when Pitch is nil) sounding event.
// In a full score a Note sits in a Measure or a Chord; in a flat score
// it sits directly in a Part.
//
// Tie points to the next note of a tied chain, which may live in a
// different measure or staff. Duration is this note's own span; see
// TiedDuration for the chain total.
type Note struct {
	EventBase
	Pitch   *pitch.Pitch
	Dynamic int // MIDI velocity, 0 when unknown
	Lyric   string
	Tie     *Note
}

// NewNote creates a note and inserts it into parent unless parent is
// nil. Pass Unset as onset to defer placement to the parent group.
// Pitch values are treated as immutable and may be shared.
func NewNote(parent Group, onset, duration float64, p *pitch.Pitch) *Note {
	n := &Note{Pitch: p}
	n.initEvent(n, onset, duration)
	n.attach(parent)
	return n
}

// NewNoteKey is NewNote with a MIDI key number spelled by default.
func NewNoteKey(parent Group, onset, duration, keyNum float64) *Note {
	return NewNote(parent, onset, duration, pitch.New(keyNum))
}

// KeyNum returns the note's MIDI key number, or -1 if unpitched.
func (n *Note) KeyNum() float64 {
	if n.Pitch == nil {
		return -1
	}
	return n.Pitch.KeyNum
}

// Name returns the pitch name with accidentals, or "" if unpitched.
func (n *Note) Name() string {
	if n.Pitch == nil {
		return ""
	}
	return n.Pitch.Name()
}

// NameWithOctave returns e.g. "Bb4", or "" if unpitched.
func (n *Note) NameWithOctave() string {
	if n.Pitch == nil {
		return ""
	}
	return n.Pitch.NameWithOctave()
}

// PitchClass returns the pitch class 0-11, or -1 if unpitched.
func (n *Note) PitchClass() int {
	if n.Pitch == nil {
		return -1
	}
	return n.Pitch.PitchClass()
}

// TiedDuration sums the durations of this note and everything it is
// tied to, without checking that the notes are contiguous. Notes tied
// *to* this one from earlier are not included. A malformed tie cycle
// is broken rather than looped forever.
func (n *Note) TiedDuration() float64 {
	seen := map[*Note]bool{}
	total := 0.0
	for m := n; m != nil && !seen[m]; m = m.Tie {
		seen[m] = true
		total += m.Duration()
	}
	return total
}

// Quantize snaps the note to the grid with special handling for ties.
// A tied-to note whose span quantizes to zero is spliced out of the
// chain, since it is almost certainly the sliver of a note that barely
// crossed a bar line. If this note's own span quantizes to zero, its
// duration is handed forward to the tied-to note and the note removes
// itself from its parent; the tied-to note will be visited later. An
// originally zero duration on an untied note is preserved.
func (n *Note) Quantize(divisions int) {
	if !n.HasOnset() {
		panic("score: cannot quantize a note with unset onset")
	}
	q := float64(divisions)
	n.onset = math.Round(n.onset*q) / q
	qoff := math.Round((n.onset+n.duration)*q) / q

	seen := map[*Note]bool{n: true}
ties:
	for n.Tie != nil && !seen[n.Tie] {
		tie := n.Tie
		seen[tie] = true
		tieOnset := math.Round(tie.Onset()*q) / q
		tieOffset := math.Round(tie.Offset()*q) / q
		switch {
		case qoff-n.onset > 0 && tieOffset-tieOnset == 0:
			// the tied-to sliver vanishes; keep following the chain
			n.Tie = tie.Tie
			if tie.parent != nil {
				tie.parent.Remove(tie)
			}
		case qoff-n.onset == 0:
			tie.duration += n.duration
			if n.parent != nil {
				n.parent.Remove(n)
			}
			return
		default:
			break ties
		}
	}
	if n.duration != 0 {
		n.duration = qoff - n.onset
		if n.duration == 0 {
			n.duration = 1 / q
		}
	}
}

// CopyInto returns a copy sharing the Pitch and the Tie pointer. The
// tie may point outside the copied subtree; MergeTied is the safe way
// to copy scores with ties.
func (n *Note) CopyInto(parent Group) Event {
	c := &Note{
		Pitch:   n.Pitch,
		Dynamic: n.Dynamic,
		Lyric:   n.Lyric,
		Tie:     n.Tie,
	}
	c.EventBase = n.copyBase(c)
	c.attach(parent)
	return c
}

func (n *Note) String() string {
	extra := ""
	if n.Dynamic != 0 {
		extra += fmt.Sprintf(", dynamic=%d", n.Dynamic)
	}
	if n.Lyric != "" {
		extra += fmt.Sprintf(", lyric=%s", n.Lyric)
	}
	return fmt.Sprintf("Note(%s%s, pitch=%s/%g)",
		n.eventTimes(), extra, n.NameWithOctave(), n.KeyNum())
}

// Show prints the note and, indented below it, the chain of notes it
// is tied to.
func (n *Note) Show(w io.Writer, indent int) {
	n.showTied(w, indent, false, map[*Note]bool{})
}

func (n *Note) showTied(w io.Writer, indent int, tied bool, seen map[*Note]bool) {
	prefix := ""
	if tied {
		prefix = "tied to "
	}
	suffix := ""
	if n.Tie != nil {
		suffix = " tied"
	}
	fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", indent), prefix, n, suffix)
	seen[n] = true
	if n.Tie != nil && !seen[n.Tie] {
		n.Tie.showTied(w, indent+2, true, seen)
	}
}

// Rest is a silent event, normally an element of a Measure.
type Rest struct {
	EventBase
}

// NewRest creates a rest and inserts it into parent unless parent is
// nil. Pass Unset as onset to defer placement to the parent group.
func NewRest(parent Group, onset, duration float64) *Rest {
	r := &Rest{}
	r.initEvent(r, onset, duration)
	r.attach(parent)
	return r
}

func (r *Rest) CopyInto(parent Group) Event {
	c := &Rest{}
	c.EventBase = r.copyBase(c)
	c.attach(parent)
	return c
}

func (r *Rest) String() string {
	return fmt.Sprintf("Rest(%s)", r.eventTimes())
}

// Clef names accepted by NewClef.
var clefNames = []string{"treble", "bass", "alto", "tenor", "percussion", "treble8vb"}

// Clef is a zero-duration event carrying clef information.
type Clef struct {
	EventBase
	Name string
}

// NewClef creates a clef event. It panics on an unknown clef name.
func NewClef(parent Group, onset float64, name string) *Clef {
	valid := false
	for _, n := range clefNames {
		if n == name {
			valid = true
			break
		}
	}
	if !valid {
		panic(fmt.Sprintf("score: invalid clef %q", name))
	}
	c := &Clef{Name: name}
	c.initEvent(c, onset, 0)
	c.attach(parent)
	return c
}

func (c *Clef) CopyInto(parent Group) Event {
	n := &Clef{Name: c.Name}
	n.EventBase = c.copyBase(n)
	n.attach(parent)
	return n
}

func (c *Clef) String() string {
	return fmt.Sprintf("Clef(%s, %s)", c.eventOnset(), c.Name)
}

// KeySignature is a zero-duration event giving the number of sharps
// (positive) or flats (negative) in force from its onset.
type KeySignature struct {
	EventBase
	Sharps int
}

// NewKeySignature creates a key signature event; sharps is negative
// for flat keys, e.g. -3 for Eb major.
func NewKeySignature(parent Group, onset float64, sharps int) *KeySignature {
	k := &KeySignature{Sharps: sharps}
	k.initEvent(k, onset, 0)
	k.attach(parent)
	return k
}

func (k *KeySignature) CopyInto(parent Group) Event {
	n := &KeySignature{Sharps: k.Sharps}
	n.EventBase = k.copyBase(n)
	n.attach(parent)
	return n
}

func (k *KeySignature) String() string {
	kind := "sharps"
	if k.Sharps < 0 {
		kind = "flats"
	}
	n := k.Sharps
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("KeySignature(%s, %d %s)", k.eventOnset(), n, kind)
}
