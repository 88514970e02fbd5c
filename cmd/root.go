package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "partita",
	Short: "Symbolic score toolkit",
	Long: `Imports MIDI and MusicXML files as score trees, flattens and
analyzes them, and serves a catalog of summaries over HTTP.`,
}

func Execute() {
	godotenv.Load()
	cobra.CheckErr(rootCmd.Execute())
}
