// Package catalog builds and loads the score index: a gob-encoded list
// of per-file summaries over a media dir of MIDI and MusicXML files.
package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/jswain/partita/constants"
	"github.com/jswain/partita/db"
	"github.com/jswain/partita/midi"
	"github.com/jswain/partita/model"
	"github.com/jswain/partita/musicxml"
	"github.com/jswain/partita/score"
	"github.com/jswain/partita/stats"
	"github.com/jswain/partita/util"
)

// ReadScoreFile imports a score file, dispatching on its extension.
func ReadScoreFile(path string) (*score.Score, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return midi.ReadMidiFile(path)
	case ".musicxml", ".xml":
		return musicxml.ReadMusicXMLFile(path)
	}
	return nil, errors.Errorf("catalog: unsupported score file %v", path)
}

// Summarize reduces a score to one catalog row. The id is freshly
// assigned.
func Summarize(s *score.Score, path string) model.ScoreSummary {
	pcs := stats.PitchClassVector(s)
	return model.ScoreSummary{
		ID:           uuid.New().String(),
		Path:         path,
		Title:        s.Get("title", "").(string),
		Composer:     s.Get("composer", "").(string),
		NumParts:     s.PartCount(),
		NumNotes:     len(score.ListAll[*score.Note](s)),
		Duration:     s.Duration(),
		PitchClasses: pcs,
		Entropy:      stats.Entropy(pcs[:]),
	}
}

// Build walks mediaDir and summarizes up to maxNum score files (0 for
// all). Files that fail to parse are skipped with a notice; when a
// metadata endpoint is configured the summaries are annotated from the
// sidecar.
func Build(mediaDir string, maxNum int) (*model.Catalog, error) {
	paths := util.GatherAllScorePaths(mediaDir, maxNum)
	var cat model.Catalog
	for i, path := range paths {
		fmt.Printf("Processing %v of %v score files\n", i+1, len(paths))
		s, err := ReadScoreFile(path)
		if err != nil {
			fmt.Printf("Skipping %v because: %v\n", path, err)
			continue
		}
		rel, err := filepath.Rel(mediaDir, path)
		if err != nil {
			rel = path
		}
		cat.Entries = append(cat.Entries, Summarize(s, rel))
	}
	if constants.GetMetadataEndpoint() != "" {
		if err := attachMetadata(&cat); err != nil {
			return nil, err
		}
	}
	return &cat, nil
}

// attachMetadata annotates entries from the sidecar in batches.
func attachMetadata(cat *model.Catalog) error {
	names := make([]string, len(cat.Entries))
	for i := range cat.Entries {
		names[i] = cat.Entries[i].Path
	}
	byName := make(map[string]model.FileMetadata)
	for _, batch := range util.Batch(names, constants.MetadataBatchSize) {
		metadatas, err := db.GetFileMetadatas(batch)
		if err != nil {
			return err
		}
		for name, m := range metadatas {
			byName[name] = m
		}
	}
	for i := range cat.Entries {
		if m, ok := byName[cat.Entries[i].Path]; ok {
			meta := m
			cat.Entries[i].Metadata = &meta
		}
	}
	return nil
}

// Save writes the catalog into dir under the standard name.
func Save(cat *model.Catalog, dir string) {
	util.CreateBinary(filepath.Join(dir, constants.CatalogFilename), cat)
}

// Load reads the catalog back from dir. It panics when the catalog is
// missing, which means index has not been run.
func Load(dir string) *model.Catalog {
	cat := util.ReadBinaryOrPanic[model.Catalog](filepath.Join(dir, constants.CatalogFilename))
	return &cat
}
