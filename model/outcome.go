package model

import "time"

type OutcomeKind uint8

const (
	OutcomeSucceeded OutcomeKind = iota
	OutcomeFailed
	OutcomeSkipped
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// SkipReasonForceCompactionDisabled is reported when a disk store does not allow forced compaction.
const SkipReasonForceCompactionDisabled = "allow-forced-compaction is false"

// Outcome is the result of one compaction attempt.
// A Failed outcome carries Cause only when the runtime returned an error;
// a declined compaction (nothing reclaimed) is Failed with a nil Cause.
type Outcome struct {
	Kind    OutcomeKind
	Cause   error
	Reason  string
	Elapsed time.Duration
}

func Succeeded(elapsed time.Duration) Outcome {
	return Outcome{Kind: OutcomeSucceeded, Elapsed: elapsed}
}

func Failed(cause error, elapsed time.Duration) Outcome {
	return Outcome{Kind: OutcomeFailed, Cause: cause, Elapsed: elapsed}
}

func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}
