package clip

// Sine generator constants
const (
	twoPi = 6.283185307179586 // 2 * π

	// Default test tone, matches a concert A at half scale.
	DefaultToneFrequency = 440.0
	DefaultToneAmplitude = 0.5
)

// WAV decoding constants
const (
	monoChannels = 1

	bitsPerSample8  = 8
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	// 8-bit WAV data is unsigned with a midpoint of 128.
	unsigned8BitOffset = 128
)
