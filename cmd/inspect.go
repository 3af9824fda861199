package cmd

import (
	"fmt"
	"io"

	"github.com/jsphweid/degreec/chord"
	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/sample"
	"github.com/jsphweid/degreec/util"
	"github.com/spf13/cobra"
)

var (
	showChords  bool
	sampleFrom  uint32
	sampleNotes int
)

func init() {
	inspectCmd.Flags().BoolVar(&showChords, "chords", false, "print the chords formed by the notes")
	inspectCmd.Flags().Uint32Var(&sampleFrom, "from", 0, "start at this tick")
	inspectCmd.Flags().IntVar(&sampleNotes, "notes", 0, "show at most this many notes per track")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Inspects a MIDI file",
	Long:  `Decodes a Standard MIDI File and prints its header, tracks and events.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := midi.ReadMidiFile(args[0])
		if err != nil {
			return err
		}
		if sampleFrom > 0 || sampleNotes > 0 {
			f = sample.Create(f, sampleFrom, sampleNotes)
		}
		inspect(cmd.OutOrStdout(), f, showChords)
		return nil
	},
}

func inspect(w io.Writer, f *midi.File, chords bool) {
	lengths := make([]int, len(f.Tracks))
	for i, t := range f.Tracks {
		lengths[i] = len(t)
	}
	fmt.Fprintf(w, "format %d, %d tracks, %s, %d events\n", f.Format, len(f.Tracks), f.Timing, util.Sum(lengths))

	for i, t := range f.Tracks {
		fmt.Fprintf(w, "track %d:\n", i)
		var abs uint32
		for _, e := range t {
			abs += e.Delta
			fmt.Fprintf(w, "  %8d  +%-6d %s\n", abs, e.Delta, e.Event)
		}
	}

	if !chords {
		return
	}
	fmt.Fprintln(w, "chords:")
	for _, c := range chord.GetChords(f) {
		marker := " "
		if c.FormedByNoteOn {
			marker = "*"
		}
		fmt.Fprintf(w, "  %8d %s %s channels %v\n", c.AbsTickOffset, marker, chord.CreateChordKey(c.Notes), c.Channels)
	}
}
