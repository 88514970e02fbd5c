package model

// NoteResponse is one note of a flattened score.
type NoteResponse struct {
	Onset    float64 `json:"onset"`
	Duration float64 `json:"duration"`
	KeyNum   float64 `json:"key_num"`
	Name     string  `json:"name"`
	Dynamic  int     `json:"dynamic,omitempty"`
}

// ScoreStatsResponse carries the analysis numbers for one score.
type ScoreStatsResponse struct {
	ID           string         `json:"id"`
	NumNotes     int            `json:"num_notes"`
	Duration     float64        `json:"duration"`
	PitchClasses []float64      `json:"pitch_classes"`
	Entropy      float64        `json:"entropy"`
	NGrams       map[string]int `json:"ngrams,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
