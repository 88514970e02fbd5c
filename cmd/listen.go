package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

func init() {
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Prints what is being played",
	Long:  `Listens on the first MIDI input port and prints a pitch-class histogram of the held notes.`,
	Run: func(cmd *cobra.Command, args []string) {
		listen()
	},
}

func listen() {
	defer midi.CloseDriver()
	in, err := midi.InPort(0)
	if err != nil {
		fmt.Println("can't find a MIDI input port")
		return
	}

	held := make(map[uint8]bool)
	// note on/off bursts from chords would print a line per key
	deb := debounce.New(50 * time.Millisecond)
	onChange := func() {
		var hist [12]int
		for key := range held {
			hist[key%12]++
		}
		deb(func() { printHistogram(hist) })
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			held[key] = true
			onChange()
		case msg.GetNoteEnd(&ch, &key):
			delete(held, key)
			onChange()
		default:
			// ignore
		}
	})
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		return
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt
	stop()
}

var pitchClassNames = []string{
	"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B",
}

func printHistogram(hist [12]int) {
	var parts []string
	for pc, count := range hist {
		if count > 0 {
			parts = append(parts, fmt.Sprintf("%v:%v", pitchClassNames[pc], count))
		}
	}
	if len(parts) == 0 {
		fmt.Println("(silence)")
		return
	}
	fmt.Println(strings.Join(parts, " "))
}
