package cmd

import (
	"bytes"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jswain/partita/midi"
)

func init() {
	rootCmd.AddCommand(excerptCmd)
}

var excerptCmd = &cobra.Command{
	Use:   "excerpt <in> <out> [maxNotes]",
	Short: "Writes the opening of a MIDI file",
	Long:  `Copies the first notes of each track into a new MIDI file, skipping leading silence.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			panic("Need at least 2 args...")
		}
		maxNotes := 10
		if len(args) == 3 {
			arg3, err := strconv.Atoi(args[2])
			if err != nil {
				panic(err)
			}
			maxNotes = arg3
		}
		if err := excerpt(args[0], args[1], maxNotes); err != nil {
			panic(err)
		}
	},
}

func excerpt(in, out string, maxNotes int) error {
	dat, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrap(err, "reading midi file")
	}
	mf, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return errors.Wrap(err, "parsing midi file")
	}
	ex := midi.Excerpt(mf, 0, maxNotes)
	return errors.Wrap(ex.WriteFile(out), "writing excerpt")
}
