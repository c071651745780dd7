package audioengine

import "fmt"

// FormatClock renders whole seconds as H:MM:SS, or MM:SS under an hour.
func FormatClock(seconds uint64) string {
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// CurrentTimestamp converts a played-sample counter into the elapsed time,
// rounding partial seconds up.
func CurrentTimestamp(played uint64, sampleRate int) (string, uint64) {
	if sampleRate <= 0 {
		return FormatClock(0), 0
	}
	rate := uint64(sampleRate)
	secs := played / rate
	if played%rate != 0 {
		secs++
	}
	return FormatClock(secs), secs
}
