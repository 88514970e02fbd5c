package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jswain/partita/catalog"
	"github.com/jswain/partita/midi"
)

var flattenCollapse bool
var flattenDivisions int

func init() {
	flattenCmd.Flags().BoolVar(&flattenCollapse, "collapse", false,
		"merge all parts into a single part")
	flattenCmd.Flags().IntVar(&flattenDivisions, "quantize", 0,
		"snap times to this many divisions per quarter (0 leaves them)")
	rootCmd.AddCommand(flattenCmd)
}

var flattenCmd = &cobra.Command{
	Use:   "flatten <in> <out>",
	Short: "Flattens a score file to plain note lists",
	Long: `Imports a score file, merges ties and lifts the notes out of the
measure structure, then writes the result as a MIDI file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 2 {
			panic("Need 2 args...")
		}
		flatten(args[0], args[1])
	},
}

func flatten(in, out string) {
	s, err := catalog.ReadScoreFile(in)
	if err != nil {
		panic("Could not read score: " + err.Error())
	}
	flat := s.Flatten(flattenCollapse)
	if flattenDivisions > 0 {
		flat.Quantize(flattenDivisions)
	}
	if err := midi.WriteMidiFile(flat, out); err != nil {
		panic("Could not write midi: " + err.Error())
	}
}
