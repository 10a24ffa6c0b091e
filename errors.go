package scopedstats

import "errors"

const Namespace = "scopedstats"

var (
	ErrNoRecording = errors.New(
		Namespace + ": no recording has completed; open a scope with Recorder.Record first",
	)
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
)
