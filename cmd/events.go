package cmd

import (
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/jsphweid/degreec/compile"
	"github.com/jsphweid/degreec/model"
	"github.com/jsphweid/degreec/playback"
	"github.com/spf13/cobra"
)

var bpm float64

func init() {
	eventsCmd.Flags().Float64Var(&bpm, "bpm", 0, "tempo in beats per minute (default: the document's tempo, then $DEGREEC_BPM, then 120)")
	rootCmd.AddCommand(eventsCmd)
}

var eventsCmd = &cobra.Command{
	Use:   "events <file.dn>",
	Short: "Prints the timed playback messages of a source as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := compile.CompileFile(args[0])
		if err != nil {
			return err
		}
		tempo := bpm
		if tempo <= 0 {
			tempo = res.BPM()
		}
		return writeEvents(cmd.OutOrStdout(), playback.Messages(res.Events.Events, tempo))
	},
}

func toPlaybackEvents(msgs []playback.Message) []model.PlaybackEvent {
	out := make([]model.PlaybackEvent, len(msgs))
	for i, m := range msgs {
		out[i] = model.PlaybackEvent{
			Millis:  m.Millis,
			Bytes:   hex.EncodeToString(m.Bytes),
			Message: m.Bytes.String(),
		}
	}
	return out
}

func writeEvents(w io.Writer, msgs []playback.Message) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toPlaybackEvents(msgs))
}
