package parameter

// Model Defaults
const (
	// DefaultRingSize is the number of cells on the ring road (L)
	DefaultRingSize = 500

	// DefaultTicks is the last simulated tick; ticks 0..T are sampled (T)
	DefaultTicks = 500

	// DefaultCars is the number of cars on the ring (N)
	DefaultCars = 300

	// DefaultSlowdown is the random braking probability per car per tick (p)
	DefaultSlowdown = 0.2

	// DefaultSpeedLimit is the maximum velocity in cells per tick (vmax)
	DefaultSpeedLimit = 2

	// DefaultSeed seeds the random stream
	DefaultSeed = 13

	// DefaultSamplePeriod writes a snapshot every this many ticks; 0 disables output (per)
	DefaultSamplePeriod = 1

	// DefaultOutputPrefix names the .npy triple
	DefaultOutputPrefix = "traffic"
)
