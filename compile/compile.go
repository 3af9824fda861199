// Package compile runs the whole pipeline from notation source to a MIDI file.
package compile

import (
	"bytes"
	"io"
	"os"

	"github.com/jsphweid/degreec/constants"
	"github.com/jsphweid/degreec/midi"
	"github.com/jsphweid/degreec/model"
	"github.com/jsphweid/degreec/parser"
	"github.com/jsphweid/degreec/planner"
	"github.com/jsphweid/degreec/track"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrSyntax = errors.New("source has syntax errors")

type Result struct {
	Tree        *model.Tree
	Diagnostics []*parser.SyntaxError
	Events      *planner.Result
	File        *midi.File
}

// Compile parses and plans src. When the source has syntax errors the
// returned Result carries the tree and every diagnostic, and the error wraps
// ErrSyntax; no file is built.
func Compile(src string) (*Result, error) {
	return compile(src, log.NewEntry(log.StandardLogger()))
}

// CompileFile compiles the source file at path.
func CompileFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open source")
	}
	defer f.Close()

	src, err := io.ReadAll(io.LimitReader(f, constants.MaxSourceSize+1))
	if err != nil {
		return nil, errors.Wrapf(err, "could not read %s", path)
	}
	if len(src) > constants.MaxSourceSize {
		return nil, errors.Errorf("%s is larger than %d bytes", path, constants.MaxSourceSize)
	}
	return compile(string(src), log.WithField("file", path))
}

func compile(src string, logger *log.Entry) (*Result, error) {
	tree, diags := parser.Parse(src)
	res := &Result{Tree: tree, Diagnostics: diags}
	if len(diags) > 0 {
		logger.WithField("diagnostics", len(diags)).Debug("parse failed")
		return res, errors.Wrap(ErrSyntax, diags[0].Error())
	}

	events, err := planner.Interpret(tree)
	if err != nil {
		return res, errors.Wrap(err, "could not plan events")
	}
	res.Events = events
	if res.File, err = track.Assemble(events, MetaEvents(tree.Metadata, logger)); err != nil {
		return res, errors.Wrap(err, "could not assemble tracks")
	}
	logger.WithFields(log.Fields{
		"events":   len(events.Events),
		"duration": events.Duration.String(),
	}).Debug("compiled")
	return res, nil
}

// Bytes encodes the compiled file.
func (r *Result) Bytes() ([]byte, error) {
	if r.File == nil {
		return nil, errors.New("nothing was compiled")
	}
	var buf bytes.Buffer
	if err := midi.Write(&buf, r.File); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the compiled file to path.
func (r *Result) WriteFile(path string) error {
	if r.File == nil {
		return errors.New("nothing was compiled")
	}
	return midi.WriteMidiFile(path, r.File)
}

// BPM is the document's tempo metadata, or the configured default.
func (r *Result) BPM() float64 {
	if r.Tree != nil {
		if bpm, ok := r.Tree.Metadata["tempo"].(int64); ok && bpm > 0 {
			return float64(bpm)
		}
	}
	return constants.GetDefaultBPM()
}
