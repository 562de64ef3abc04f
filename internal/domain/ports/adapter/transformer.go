package adapter

import "context"

// Spec is one concrete transformer invocation, fully derived before the
// external process starts.
type Spec struct {
	SourcePath string // face to apply
	TargetPath string // image or video to apply it to
	OutputPath string // where exactly one output file must appear

	ManyFaces    bool
	FaceEnhancer bool

	// Flags for animated targets: process at the source frame rate, drop
	// audio, keep intermediate frames on disk.
	KeepFPS    bool
	SkipAudio  bool
	KeepFrames bool
}

// Outcome captures what the external process did, success or not.
type Outcome struct {
	ExitCode   int
	TimedOut   bool
	Diagnostic string // last lines of stderr
}

// Transformer is the port for the external media transformer. Run blocks for
// the duration of the invocation, bounded by the adapter's configured
// timeout; err is non-nil whenever the process could not be run or exited
// non-zero, with Outcome carrying the failure context either way.
type Transformer interface {
	Run(ctx context.Context, spec Spec) (Outcome, error)
}
