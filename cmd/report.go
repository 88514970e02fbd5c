package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jswain/partita/catalog"
	"github.com/jswain/partita/constants"
	"github.com/jswain/partita/model"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarizes the catalog",
	Long:  `Prints aggregate numbers over the catalog in the index dir.`,
	Run: func(cmd *cobra.Command, args []string) {
		report()
	},
}

type catalogReport struct {
	numScores     int
	numNotes      int
	withMetadata  int
	totalQuarters float64
	avgEntropy    float64
	pitchClasses  [12]float64
}

func analyzeCatalog(cat []model.ScoreSummary) catalogReport {
	var r catalogReport
	for _, e := range cat {
		r.numScores++
		r.numNotes += e.NumNotes
		r.totalQuarters += e.Duration
		r.avgEntropy += e.Entropy
		if e.Metadata != nil {
			r.withMetadata++
		}
		for i, p := range e.PitchClasses {
			r.pitchClasses[i] += p
		}
	}
	if r.numScores > 0 {
		r.avgEntropy /= float64(r.numScores)
		for i := range r.pitchClasses {
			r.pitchClasses[i] /= float64(r.numScores)
		}
	}
	return r
}

func report() {
	cat := catalog.Load(constants.GetIndexDir())
	r := analyzeCatalog(cat.Entries)

	fmt.Printf("scores: %v\n", r.numScores)
	fmt.Printf("notes: %v\n", r.numNotes)
	fmt.Printf("with metadata: %v\n", r.withMetadata)
	fmt.Printf("total length in quarters: %.1f\n", r.totalQuarters)
	fmt.Printf("mean pitch-class entropy: %.3f\n", r.avgEntropy)
	fmt.Printf("mean pitch-class weights:\n")
	for pc, w := range r.pitchClasses {
		fmt.Printf("  %2d: %.3f\n", pc, w)
	}
}
