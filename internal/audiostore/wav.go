package audiostore

import (
	"os"
	"time"

	"github.com/go-audio/wav"
)

// Inspect returns the playback duration of a WAV recording. ok is false for
// anything that does not decode as WAV.
func Inspect(path string) (d time.Duration, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, false
	}
	d, err = dec.Duration()
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
