package constants

import (
	"os"
	"strconv"
)

func GetOutputDir() string {
	path := os.Getenv("DEGREEC_OUT_PATH")
	if path != "" {
		return path
	}
	return "./out"
}

func GetServeAddr() string {
	addr := os.Getenv("DEGREEC_ADDR")
	if addr != "" {
		return addr
	}
	return ":8080"
}

// GetDefaultBPM is the tempo used for playback and when a document has no
// tempo metadata.
func GetDefaultBPM() float64 {
	bpm, err := strconv.ParseFloat(os.Getenv("DEGREEC_BPM"), 64)
	if err != nil || bpm <= 0 {
		return 120
	}
	return bpm
}

// 96 ticks per quarter note
const PulsesPerWhole = 384

const TicksPerQuarter = PulsesPerWhole / 4

const SourceExt = ".dn"

const MaxSourceSize = 1 << 20
