package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jswain/partita/catalog"
	"github.com/jswain/partita/constants"
	"github.com/jswain/partita/util"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index [maxNum]",
	Short: "Builds the score catalog",
	Long:  `Walks the media dir, summarizes every score file and writes the catalog into the index dir.`,
	Run: func(cmd *cobra.Command, args []string) {
		var maxNum int
		if len(args) == 1 {
			arg1, err := strconv.Atoi(args[0])
			if err != nil {
				panic(err)
			}
			maxNum = arg1
		}

		Index(maxNum)
	},
}

// Index rebuilds the catalog from scratch.
func Index(maxNum int) {
	util.RecreateIndexDir()
	cat, err := catalog.Build(constants.GetMediaDir(), maxNum)
	if err != nil {
		panic("Could not build catalog: " + err.Error())
	}
	catalog.Save(cat, constants.GetIndexDir())
}
