package parameter

// Sonification
const (
	// AudioSampleRate of rendered WAV files
	AudioSampleRate = 44100

	// AudioToneMs is the duration of one sampled tick in the rendered audio
	AudioToneMs = 30

	// AudioRampMs fades each tone in and out
	AudioRampMs = 3

	// AudioBaseFreq is the pitch of a stopped road; AudioSpanFreq is added at full speed
	AudioBaseFreq = 220.0
	AudioSpanFreq = 660.0

	// AudioGain attenuates the tones (beep effects.Gain, -1 mutes)
	AudioGain = -0.6
)
