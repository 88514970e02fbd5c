package cmd

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/jswain/partita/catalog"
	"github.com/jswain/partita/constants"
	"github.com/jswain/partita/model"
	"github.com/jswain/partita/stats"
)

var theCatalog *model.Catalog

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the catalog over HTTP",
	Long:  `Serves score summaries, sorted notes and stats from the catalog in the index dir.`,
	Run: func(cmd *cobra.Command, args []string) {
		serve()
	},
}

// LoadServeFiles loads the catalog the handlers read from. Split out of
// serve so tests can prime the handlers without binding a port.
func LoadServeFiles() {
	theCatalog = catalog.Load(constants.GetIndexDir())
}

// NewRouter wires the HTTP surface.
func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/scores", handleListScores).Methods("GET")
	router.HandleFunc("/scores/{id}/notes", handleScoreNotes).Methods("GET")
	router.HandleFunc("/scores/{id}/stats", handleScoreStats).Methods("GET")
	return cors.Default().Handler(router)
}

func serve() {
	LoadServeFiles()
	log.Fatal(http.ListenAndServe(constants.GetServeAddr(), NewRouter()))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}

// entryFor resolves the id path variable, or writes a 404.
func entryFor(w http.ResponseWriter, r *http.Request) *model.ScoreSummary {
	id := mux.Vars(r)["id"]
	entry := theCatalog.ByID(id)
	if entry == nil {
		writeError(w, http.StatusNotFound, "no score with id "+id)
	}
	return entry
}

func handleListScores(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(theCatalog.Entries)
}

func handleScoreNotes(w http.ResponseWriter, r *http.Request) {
	entry := entryFor(w, r)
	if entry == nil {
		return
	}
	s, err := catalog.ReadScoreFile(filepath.Join(constants.GetMediaDir(), entry.Path))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	notes, err := s.GetSortedNotes(true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	res := make([]model.NoteResponse, 0, len(notes))
	for _, n := range notes {
		res = append(res, model.NoteResponse{
			Onset:    n.Onset(),
			Duration: n.Duration(),
			KeyNum:   n.KeyNum(),
			Name:     n.NameWithOctave(),
			Dynamic:  n.Dynamic,
		})
	}
	json.NewEncoder(w).Encode(res)
}

func handleScoreStats(w http.ResponseWriter, r *http.Request) {
	entry := entryFor(w, r)
	if entry == nil {
		return
	}
	s, err := catalog.ReadScoreFile(filepath.Join(constants.GetMediaDir(), entry.Path))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ngrams, err := stats.PitchClassNGrams(s, 2)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	json.NewEncoder(w).Encode(model.ScoreStatsResponse{
		ID:           entry.ID,
		NumNotes:     entry.NumNotes,
		Duration:     entry.Duration,
		PitchClasses: entry.PitchClasses[:],
		Entropy:      entry.Entropy,
		NGrams:       ngrams,
	})
}
