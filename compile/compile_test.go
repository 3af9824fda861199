package compile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/model"
	"github.com/jsphweid/degreec/planner"
	"github.com/jsphweid/degreec/track"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestCompileMelody(t *testing.T) {
	res, err := Compile("[ _/8 0 _/4 1 _/4 2 _/4 0 _/8 r ]")
	if !assert.NoError(t, err) {
		return
	}

	assert := assert.New(t)
	assert.Empty(res.Diagnostics)
	assert.Len(res.File.Tracks, 2)
	assert.Len(res.File.Tracks[1], 9)

	b, err := res.Bytes()
	assert.NoError(err)
	assert.Equal([]byte("MThd\x00\x00\x00\x06\x00\x01\x00\x02\x00\x60"), b[:14])

	decoded, err := midi.Decode(b)
	assert.NoError(err)
	assert.Equal(res.File, decoded)
}

func TestCompileMetadata(t *testing.T) {
	res, err := Compile("0, { 'tempo' = 96, 'title' = 'Etude', 'time' = [3, 4], 'mood' = calm }")
	if !assert.NoError(t, err) {
		return
	}

	assert := assert.New(t)
	assert.Equal(96.0, res.BPM())
	assert.Equal(midi.Track{
		{Event: midi.Text{Type: midi.MetaTrackName, Text: "Etude"}},
		{Event: midi.Tempo(625000)},
		{Event: midi.TimeSignature{Numerator: 3, DenominatorPower: 2, ClocksPerClick: 24, ThirtySeconds: 8}},
		{Delta: 96, Event: midi.EndOfTrack{}},
	}, res.File.Tracks[0])
}

func TestMetaEventsIgnoresBadValues(t *testing.T) {
	meta := map[string]any{
		"tempo": "fast",
		"title": int64(3),
		"time":  []any{int64(3), int64(5)},
	}
	assert.Empty(t, MetaEvents(meta, log.NewEntry(log.StandardLogger())))
}

func TestCompileSyntaxErrors(t *testing.T) {
	res, err := Compile("[ 0 key 12 1 ] { 2 # }")

	assert := assert.New(t)
	assert.True(errors.Is(err, ErrSyntax))
	if assert.NotNil(res) {
		assert.Len(res.Diagnostics, 2)
		assert.Nil(res.File)
		assert.NotNil(res.Tree)
	}
	assert.Contains(err.Error(), "1:9:")

	_, err = res.Bytes()
	assert.Error(err)
}

func TestCompileOutOfChannels(t *testing.T) {
	src := "{ ['program_0' 0] ['program_1' 0] ['program_2' 0] ['program_3' 0] ['program_4' 0]" +
		" ['program_5' 0] ['program_6' 0] ['program_7' 0] ['program_8' 0] ['program_9' 0]" +
		" ['program_10' 0] ['program_11' 0] ['program_12' 0] ['program_13' 0] ['program_14' 0] }"
	res, err := Compile(src)

	assert.True(t, errors.Is(err, planner.ErrOutOfChannels))
	assert.Nil(t, res.File)
}

func TestCompileRejectsOversizedTimes(t *testing.T) {
	res, err := Compile("_11184811 0")
	assert.True(t, errors.Is(err, track.ErrTooLong))
	assert.Nil(t, res.File)

	_, err = Compile("[ _1/2147483647 0 _1/2147483629 0 _1/2147483587 0 ]")
	assert.True(t, errors.Is(err, model.ErrOverflow))
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tune.dn")
	assert.NoError(t, os.WriteFile(path, []byte("% a tune\n[$A = { 0 2 4 } $A]\n"), 0644))

	res, err := CompileFile(path)
	if !assert.NoError(t, err) {
		return
	}
	out := filepath.Join(dir, "tune.mid")
	assert.NoError(t, res.WriteFile(out))

	f, err := midi.ReadMidiFile(out)
	assert.NoError(t, err)
	assert.Equal(t, res.File, f)

	_, err = CompileFile(filepath.Join(dir, "missing.dn"))
	assert.Error(t, err)
}

func TestBPMDefault(t *testing.T) {
	t.Setenv("DEGREEC_BPM", "90")
	res, err := Compile("0")
	assert.NoError(t, err)
	assert.Equal(t, 90.0, res.BPM())
}
