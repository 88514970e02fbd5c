package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jswain/partita/catalog"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Prints a score file as a tree",
	Long:  `Imports a MIDI or MusicXML file and prints its event hierarchy.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			panic("Need 1 arg...")
		}
		inspect(args[0])
	},
}

func inspect(path string) {
	s, err := catalog.ReadScoreFile(path)
	if err != nil {
		panic("Could not read score: " + err.Error())
	}
	s.Show(os.Stdout, 0)
}
