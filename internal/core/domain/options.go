package domain

// StreamSink receives incremental answer text. It may be invoked zero or
// more times before the pipeline call returns, including from inside a
// backend call's response window.
type StreamSink func(chunk string)

// ProgressSink receives coarse milestone updates for UI feedback. It carries
// no control-flow significance.
type ProgressSink func(percent int, stage string)

// RAGOptions configures a single pipeline invocation. The zero value is
// usable; Normalize fills defaults and clamps ranges.
type RAGOptions struct {
	// Limit bounds the number of reranked sources handed to generation.
	Limit int
	// Stream enables incremental output through OnChunk.
	Stream bool
	// OnChunk receives streamed answer text when Stream is set.
	OnChunk StreamSink
	// OnProgress, when non-nil, receives milestone updates.
	OnProgress ProgressSink
	// Lambda is the MMR relevance/diversity trade-off in [0,1].
	Lambda float64
	// PathPrefix restricts retrieval to documents under a corpus sub-path.
	PathPrefix string
}

const (
	defaultResultLimit = 10
	defaultMMRLambda   = 0.6
)

// Normalize returns a copy with defaults applied. Lambda outside [0,1] and
// non-positive limits fall back to the defaults.
func (o RAGOptions) Normalize() RAGOptions {
	out := o
	if out.Limit <= 0 {
		out.Limit = defaultResultLimit
	}
	if out.Lambda <= 0 || out.Lambda > 1 {
		out.Lambda = defaultMMRLambda
	}
	if !out.Stream {
		out.OnChunk = nil
	}
	return out
}
