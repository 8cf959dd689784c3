package parameter

// Viewer Timing
const (
	// ViewerFrameMs is the default delay between rendered rows in the terminal viewer
	ViewerFrameMs = 40

	// ViewerMinFrameMs and ViewerMaxFrameMs bound the speed keys
	ViewerMinFrameMs = 5
	ViewerMaxFrameMs = 1000
)
