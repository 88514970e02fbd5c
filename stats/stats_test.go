package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jswain/partita/pitch"
	"github.com/jswain/partita/score"
)

func cMajorArpeggio(t *testing.T) *score.Score {
	s, err := score.FromMelody([]float64{60, 64, 67, 72}, 1.0)
	assert.NoError(t, err)
	return s
}

func TestPitchClassVector(t *testing.T) {
	s := cMajorArpeggio(t)
	v := PitchClassVector(s)
	assert.Equal(t, 0.5, v[0]) // C4 and C5
	assert.Equal(t, 0.25, v[4])
	assert.Equal(t, 0.25, v[7])
	assert.Equal(t, 0.0, v[1])

	empty := score.NewScore()
	assert.Equal(t, [12]float64{}, PitchClassVector(empty))
}

func TestKeyNumHistogram(t *testing.T) {
	s, err := score.FromMelody([]float64{60, 60, 72}, 1.0)
	assert.NoError(t, err)
	h := KeyNumHistogram(s)
	assert.Equal(t, map[int]int{60: 2, 72: 1}, h)
}

func TestDurationHistogram(t *testing.T) {
	s, err := score.FromMelodySpec(score.Melody{
		Pitches:   pitches(60, 62, 64),
		Durations: []float64{0.5, 1.0, 2.5},
	})
	assert.NoError(t, err)
	h := DurationHistogram(s, 1.0)
	assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, h)
	assert.Empty(t, DurationHistogram(s, 0))
}

func TestIOIHistogram(t *testing.T) {
	s, err := score.FromMelodySpec(score.Melody{
		Pitches: pitches(60, 62, 64),
		IOIs:    []float64{1.0, 2.0},
	})
	assert.NoError(t, err)
	h, err := IOIHistogram(s, 1.0)
	assert.NoError(t, err)
	assert.Equal(t, map[int]int{1: 1, 2: 1}, h)
}

func TestEntropy(t *testing.T) {
	assert.Equal(t, 0.0, Entropy([]float64{1, 0, 0, 0}))
	assert.Equal(t, 2.0, Entropy([]float64{1, 1, 1, 1}))
	// raw counts normalize the same as proportions
	assert.Equal(t, Entropy([]float64{0.5, 0.5}), Entropy([]float64{7, 7}))
	// the all-zero distribution maps to maximum entropy
	assert.Equal(t, 2.0, Entropy([]float64{0, 0, 0, 0}))
	assert.Equal(t, 0.0, Entropy(nil))
}

func TestPitchClassEntropy(t *testing.T) {
	uniform, err := score.FromMelody([]float64{60, 61, 62, 63}, 1.0)
	assert.NoError(t, err)
	repeated, err := score.FromMelody([]float64{60, 60, 60, 60}, 1.0)
	assert.NoError(t, err)

	assert.InDelta(t, 2.0, PitchClassEntropy(uniform), 1e-9)
	assert.Equal(t, 0.0, PitchClassEntropy(repeated))
	// an empty score has an all-zero vector
	assert.InDelta(t, math.Log2(12), PitchClassEntropy(score.NewScore()), 1e-9)
}

func TestPitchClassNGrams(t *testing.T) {
	s, err := score.FromMelody([]float64{60, 64, 67, 60, 64}, 1.0)
	assert.NoError(t, err)

	bigrams, err := PitchClassNGrams(s, 2)
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{"0-4": 2, "4-7": 1, "7-0": 1}, bigrams)

	trigrams, err := PitchClassNGrams(s, 3)
	assert.NoError(t, err)
	assert.Equal(t, 1, trigrams["0-4-7"])

	_, err = PitchClassNGrams(s, 0)
	assert.Error(t, err)
}

func TestPitchClassNGramsMergesTies(t *testing.T) {
	s, err := score.FromMelodySpec(score.Melody{
		Pitches:   pitches(60, 60, 64),
		Durations: []float64{1, 1, 1},
		Ties:      []bool{true, false, false},
	})
	assert.NoError(t, err)

	bigrams, err := PitchClassNGrams(s, 2)
	assert.NoError(t, err)
	// the tied pair counts as one note
	assert.Equal(t, map[string]int{"0-4": 1}, bigrams)
}

func pitches(keyNums ...float64) []*pitch.Pitch {
	res := make([]*pitch.Pitch, len(keyNums))
	for i, k := range keyNums {
		res[i] = pitch.New(k)
	}
	return res
}
