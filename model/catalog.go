package model

// ScoreSummary is one catalog row: a summary of an imported score file
// plus any sidecar metadata found for it.
type ScoreSummary struct {
	ID           string
	Path         string
	Title        string
	Composer     string
	NumParts     int
	NumNotes     int
	Duration     float64 // quarters
	PitchClasses [12]float64
	Entropy      float64
	Metadata     *FileMetadata
}

// Catalog is what the index command writes and serve loads.
type Catalog struct {
	Entries []ScoreSummary
}

// ByID returns the entry with the given id, or nil.
func (c *Catalog) ByID(id string) *ScoreSummary {
	for i := range c.Entries {
		if c.Entries[i].ID == id {
			return &c.Entries[i]
		}
	}
	return nil
}

// FileMetadata is the per-file record the metadata sidecar stores,
// keyed by the file name relative to the media dir.
type FileMetadata struct {
	Title   string
	Artist  string
	Release string
	Year    uint
}
