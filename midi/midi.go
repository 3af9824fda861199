// Package midi reads and writes Standard MIDI Files.
package midi

import (
	"os"

	"github.com/pkg/errors"
)

func ReadMidiFile(filepath string) (*File, error) {
	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading midi file")
	}

	res, err := Decode(dat)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing midi file %s", filepath)
	}

	return res, nil
}

func WriteMidiFile(filepath string, f *File) error {
	dat, err := Encode(f)
	if err != nil {
		return errors.Wrap(err, "error encoding midi file")
	}

	if err := os.WriteFile(filepath, dat, 0644); err != nil {
		return errors.Wrapf(err, "error writing midi file %s", filepath)
	}
	return nil
}
