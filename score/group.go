package score

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/jswain/partita/timemap"
)

// Group is an Event that contains other Events. Concrete groups are
// Chord, Measure, Staff, Part and Score. Measure and Staff are
// sequences: content is ordered in time and unset child onsets resolve
// to the previous child's offset. The others are concurrences: unset
// child onsets resolve to the group's own onset.
type Group interface {
	Event
	// Content returns the children in onset order. The slice is the
	// group's own; callers must not modify it.
	Content() []Event
	// Insert adds an owned-by-nobody event with a resolved onset,
	// keeping content sorted by onset (after existing equal onsets).
	Insert(ev Event) Group
	// Remove detaches ev from the group. It panics if ev is not a
	// direct child.
	Remove(ev Event) Group
	// Last returns the final child or nil.
	Last() Event
	// InheritDuration stretches the duration to reach the content's
	// maximal offset (zero for an empty group).
	InheritDuration() Group
	// EmptyCopyInto copies the group's attributes but not its content,
	// inserting into parent unless parent is nil.
	EmptyCopyInto(parent Group) Group
	// MergeTied returns a deep copy in which each chain of tied notes
	// is replaced by one note carrying the chain's total duration.
	MergeTied(parent Group) Group
	// ExpandChords returns a deep copy with every Chord replaced by its
	// member notes.
	ExpandChords(parent Group) Group
	// RemoveRests returns a deep copy without Rests.
	RemoveRests(parent Group) Group
	IsMonophonic() bool

	emptyCopy() Group
	mergeTiedInto(parent Group, ignore map[*Note]bool) Group
	expandChordsInto(parent Group) Group
	removeRestsInto(parent Group) Group
	pack(onset float64) float64
}

// GroupBase carries the state and algorithms shared by every Group.
// sequential distinguishes sequence groups from concurrence groups.
type GroupBase struct {
	EventBase
	content    []Event
	sequential bool
}

// initGroup resolves the content's onsets and computes an unset
// duration, then adopts the content. Children must arrive in onset
// order; children with unset onsets are placed according to the group
// kind. A child may not start before the group's own onset (when set).
func (g *GroupBase) initGroup(self Group, onset, duration float64, content []Event, sequential bool) {
	g.initEvent(self, onset, duration)
	g.sequential = sequential

	start := 0.0
	if !IsUnset(onset) {
		start = onset
	}
	prevOnset := start
	prevOffset := start
	for _, elem := range content {
		if elem.Parent() != nil {
			panic(fmt.Sprintf("score: %s is already owned by a group", elem))
		}
		if !elem.HasOnset() {
			if sequential {
				elem.SetOnset(prevOffset)
			} else {
				elem.SetOnset(start)
			}
		} else if elem.Onset() < prevOnset {
			panic(fmt.Sprintf("score: %s is out of onset order", elem))
		}
		prevOnset = elem.Onset()
		prevOffset = elem.Offset()
		elem.setParent(self)
	}
	g.content = append(g.content, content...)

	if IsUnset(duration) {
		maxOffset := 0.0
		for _, elem := range g.content {
			if off := elem.Offset(); off > maxOffset {
				maxOffset = off
			}
		}
		g.duration = maxOffset - start
	}
}

func (g *GroupBase) group() Group { return g.self.(Group) }

func (g *GroupBase) Content() []Event { return g.content }

func (g *GroupBase) Last() Event {
	if len(g.content) == 0 {
		return nil
	}
	return g.content[len(g.content)-1]
}

// Insert places ev by onset, after any existing children with an equal
// onset. The event must be parentless and its onset resolved.
func (g *GroupBase) Insert(ev Event) Group {
	if ev.Parent() != nil {
		panic(fmt.Sprintf("score: %s is already owned by a group", ev))
	}
	if !ev.HasOnset() {
		panic(fmt.Sprintf("score: cannot insert %s with unset onset", ev))
	}
	i := len(g.content)
	for i > 0 && g.content[i-1].Onset() > ev.Onset() {
		i--
	}
	g.content = slices.Insert(g.content, i, ev)
	ev.setParent(g.group())
	return g.group()
}

func (g *GroupBase) Remove(ev Event) Group {
	i := slices.Index(g.content, ev)
	if i < 0 {
		panic(fmt.Sprintf("score: %s is not in this group", ev))
	}
	g.content = slices.Delete(g.content, i, i+1)
	ev.setParent(nil)
	return g.group()
}

// SetOnset assigns the group's onset. On the first unset-to-set
// transition the content, whose onsets were relative to zero, is
// shifted into place. Later assignments change only the group itself.
func (g *GroupBase) SetOnset(onset float64) {
	if IsUnset(onset) {
		panic("score: onset must be a number; only a constructor can leave it unset")
	}
	if IsUnset(g.onset) && onset != 0 {
		for _, elem := range g.content {
			elem.TimeShift(onset)
		}
	}
	g.onset = onset
}

// TimeShift moves the group and its whole subtree by delta.
func (g *GroupBase) TimeShift(delta float64) Event {
	g.onset = g.Onset() + delta
	for _, elem := range g.content {
		elem.TimeShift(delta)
	}
	return g.self
}

func (g *GroupBase) InheritDuration() Group {
	maxOffset := g.Onset()
	for _, elem := range g.content {
		if off := elem.Offset(); off > maxOffset {
			maxOffset = off
		}
	}
	g.duration = maxOffset - g.Onset()
	return g.group()
}

// FindAll walks the subtree of g in depth-first order and calls visit
// for every event of type T, until visit returns false. Matching
// events are not searched for nested matches, so FindAll[*Part] on a
// score yields only top-level parts.
func FindAll[T Event](g Group, visit func(T) bool) {
	findAll(g, visit)
}

func findAll[T Event](g Group, visit func(T) bool) bool {
	for _, ev := range g.Content() {
		if t, ok := ev.(T); ok {
			if !visit(t) {
				return false
			}
		} else if sub, ok := ev.(Group); ok {
			if !findAll(sub, visit) {
				return false
			}
		}
	}
	return true
}

// ListAll collects everything FindAll would visit.
func ListAll[T Event](g Group) []T {
	var out []T
	FindAll(g, func(t T) bool {
		out = append(out, t)
		return true
	})
	return out
}

// HasInstance reports whether the subtree contains an event of type T.
func HasInstance[T Event](g Group) bool {
	found := false
	FindAll(g, func(T) bool {
		found = true
		return false
	})
	return found
}

func (g *GroupBase) HasRests() bool    { return HasInstance[*Rest](g.group()) }
func (g *GroupBase) HasChords() bool   { return HasInstance[*Chord](g.group()) }
func (g *GroupBase) HasMeasures() bool { return HasInstance[*Measure](g.group()) }

func (g *GroupBase) HasTies() bool {
	found := false
	FindAll(g.group(), func(n *Note) bool {
		if n.Tie != nil {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsMonophonic reports whether no two notes of the subtree sound at
// once. Zero-duration notes never overlap anything.
func (g *GroupBase) IsMonophonic() bool {
	notes := ListAll[*Note](g.group())
	slices.SortStableFunc(notes, func(a, b *Note) bool {
		return a.Onset() < b.Onset()
	})
	const eps = 1e-6
	for i := 1; i < len(notes); i++ {
		prev := notes[i-1]
		if prev.Duration() > 0 && prev.Offset() > notes[i].Onset()+eps {
			return false
		}
	}
	return true
}

// sortedNotes returns the subtree's notes ordered by onset, then pitch.
// With requireUntied it reports an error if any tie remains, since a
// tied chain would be counted as several notes.
func (g *GroupBase) sortedNotes(requireUntied bool) ([]*Note, error) {
	notes := ListAll[*Note](g.group())
	if requireUntied {
		for _, n := range notes {
			if n.Tie != nil {
				return nil, fmt.Errorf("score: notes have ties; merge tied notes first")
			}
		}
	}
	slices.SortStableFunc(notes, noteLess)
	return notes, nil
}

// noteLess orders notes by onset, then pitch; unpitched notes sort
// before pitched ones at the same onset.
func noteLess(a, b *Note) bool {
	if a.Onset() != b.Onset() {
		return a.Onset() < b.Onset()
	}
	if a.Pitch == nil || b.Pitch == nil {
		return a.Pitch == nil && b.Pitch != nil
	}
	return a.Pitch.Less(b.Pitch)
}

// pack lays the content out at onset with no gaps and returns the new
// duration. Sequence groups place children end to start; concurrence
// groups start every child at onset and adopt the longest child's
// duration. Nested groups are packed recursively.
func (g *GroupBase) packContent(onset float64, sequential bool) float64 {
	g.SetOnset(onset)
	g.duration = 0
	cursor := onset
	for _, elem := range g.content {
		elem.SetOnset(cursor)
		if sub, ok := elem.(Group); ok {
			elem.SetDuration(sub.pack(cursor))
		}
		if sequential {
			cursor += elem.Duration()
		} else if elem.Duration() > g.duration {
			g.duration = elem.Duration()
		}
	}
	if sequential {
		g.duration = cursor - onset
	}
	return g.duration
}

func (g *GroupBase) pack(onset float64) float64 {
	return g.packContent(onset, g.sequential)
}

// Pack shifts the group to onset and removes all gaps in its content.
// Returns the resulting duration.
func (g *GroupBase) Pack(onset float64) float64 {
	return g.group().pack(onset)
}

// Quantize snaps the group's own span like a leaf event and then
// quantizes the content. A child may remove itself from the group while
// being quantized (a tied note handing its duration forward), so the
// loop advances only when the child is still in place.
func (g *GroupBase) Quantize(divisions int) {
	g.quantizeSpan(divisions)
	i := 0
	for i < len(g.content) {
		ev := g.content[i]
		ev.Quantize(divisions)
		if i < len(g.content) && g.content[i] == ev {
			i++
		}
	}
}

func (g *GroupBase) convertToSeconds(tm *timemap.TimeMap) {
	for _, elem := range g.content {
		elem.convertToSeconds(tm)
	}
	g.EventBase.convertToSeconds(tm)
}

func (g *GroupBase) convertToQuarters(tm *timemap.TimeMap) {
	for _, elem := range g.content {
		elem.convertToQuarters(tm)
	}
	g.EventBase.convertToQuarters(tm)
}

// EmptyCopyInto copies the group without content.
func (g *GroupBase) EmptyCopyInto(parent Group) Group {
	c := g.group().emptyCopy()
	if parent != nil {
		parent.Insert(c)
	}
	return c
}

// CopyInto deep-copies the group; children keep their relative order.
func (g *GroupBase) CopyInto(parent Group) Event {
	c := g.EmptyCopyInto(parent)
	for _, elem := range g.content {
		elem.CopyInto(c)
	}
	return c
}

// MergeTied returns a deep copy where each chain of tied notes becomes
// a single note whose duration is the chain's total. Chains may cross
// group boundaries (measures, staves); the later members are dropped
// wherever they occur.
func (g *GroupBase) MergeTied(parent Group) Group {
	return g.group().mergeTiedInto(parent, make(map[*Note]bool))
}

// mergeTiedInto copies the subtree, skipping notes marked in ignore and
// marking each skipped note's own tie target in turn, so whole chains
// disappear behind their first member. The first member is copied with
// its tie detached and its duration widened to the chain total.
func (g *GroupBase) mergeTiedInto(parent Group, ignore map[*Note]bool) Group {
	grp := g.group().EmptyCopyInto(parent)
	for _, ev := range g.content {
		if n, ok := ev.(*Note); ok {
			switch {
			case ignore[n]:
				if n.Tie != nil {
					ignore[n.Tie] = true
				}
				delete(ignore, n)
			case n.Tie != nil:
				tied := n.Tie
				ignore[tied] = true
				// copy without the tie, then restore it
				n.Tie = nil
				c := n.CopyInto(grp).(*Note)
				n.Tie = tied
				c.SetDuration(n.TiedDuration())
			default:
				n.CopyInto(grp)
			}
		} else if sub, ok := ev.(Group); ok {
			sub.mergeTiedInto(grp, ignore)
		} else {
			ev.CopyInto(grp)
		}
	}
	return grp
}

// ExpandChords returns a deep copy in which every Chord is replaced by
// copies of its member notes, placed directly in the chord's parent.
func (g *GroupBase) ExpandChords(parent Group) Group {
	return g.group().expandChordsInto(parent)
}

func (g *GroupBase) expandChordsInto(parent Group) Group {
	grp := g.group().EmptyCopyInto(parent)
	for _, ev := range g.content {
		if chord, ok := ev.(*Chord); ok {
			for _, member := range chord.Content() {
				member.CopyInto(grp)
			}
		} else if sub, ok := ev.(Group); ok {
			sub.expandChordsInto(grp)
		} else {
			ev.CopyInto(grp)
		}
	}
	return grp
}

// RemoveRests returns a deep copy without any Rests.
func (g *GroupBase) RemoveRests(parent Group) Group {
	return g.group().removeRestsInto(parent)
}

func (g *GroupBase) removeRestsInto(parent Group) Group {
	grp := g.group().EmptyCopyInto(parent)
	for _, ev := range g.content {
		if _, ok := ev.(*Rest); ok {
			continue
		}
		if sub, ok := ev.(Group); ok {
			sub.removeRestsInto(grp)
		} else {
			ev.CopyInto(grp)
		}
	}
	return grp
}

// Show prints the group header and then the subtree, indented.
func (g *GroupBase) Show(w io.Writer, indent int) {
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", indent), g.self.String())
	for _, elem := range g.content {
		elem.Show(w, indent+4)
	}
}
