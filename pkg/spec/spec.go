package spec

import "time"

var (
	// Masing-masing 64 karakter random
	r1 = "x8A2bN9mQpL5vWcE1zY7uI0oK4jH3gD6fS9dS8aA7qP6wO5eI4rU3tY2yT1xR0bV9"
	r2 = "M1nB2vC3xC4zZ5lK6jJ7hH8gG9fF0dD1sS2aA3pP4oO5iI6uU7yY8tT9rR0eE1wW2"
	r3 = "Q9qW8eE7rR6tT5yY4uU3iI2oO1pP0aA1sS2dD3fF4gG5hH6jJ7kK8lL9zZ0xX1cC2"

	// MasterBfKey unlocks the per-volume key locker (_keys.dat)
	MasterBfKey = r1 + r2 + r3
)

const (
	// === IDENTITY & VERSIONING ===
	VersionV2     = "2.0.0"
	EngineName    = "HDX-Echo"
	EngineVersion = "1.0.0"

	// === MAGIC NUMBERS (HDXV VOLUMES) ===
	VolumeMagicV2 = "HDXV02"
	BfKeyMagicV2  = "HRDXBF02"

	// === HDXV STREAM SPECS ===
	SampleRate      = 48000
	Channels        = 2
	FrameSize       = 20  // ms
	FrameSamples    = 960 // samples per channel in one 20ms frame @ 48kHz
	MaxFrameSamples = 5760
	KeyLockerSuffix = "_keys.dat"

	// === TLV TAGS ===
	Salt         = "SALT"
	Artwork      = "ARTW"
	Album        = "ALBM"
	Publisher    = "PUBL"
	Genre        = "GENR"
	JsonFileData = "JSFD" // isi file .json utuh
	AudioData    = "AUDI"
)

// === PLAYBACK ENGINE DEFAULTS ===
const (
	DefaultVolume      = 0.3
	MinBufferThreshold = 4096

	// Spectrum worker: only analyse when at least SpectrumTrigger samples
	// are buffered, and then only the first SpectrumWindow of them.
	SpectrumTrigger = 4056
	SpectrumWindow  = 2056

	SpectrumInterval = 30 * time.Millisecond
	BackoffInterval  = 10 * time.Millisecond

	// Output buffer handed to the speaker.
	OutputBuffer = 100 * time.Millisecond
)
