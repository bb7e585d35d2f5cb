package domain

// SummaryStatus tags the outcome of a summarization call.
type SummaryStatus int

const (
	SummaryOK SummaryStatus = iota
	// SummaryNoContent means the service answered without usable text.
	SummaryNoContent
	// SummaryRateLimited means no permit was available within the wait ceiling.
	SummaryRateLimited
	// SummaryOverloaded means the service stayed overloaded through every retry.
	SummaryOverloaded
	// SummaryInterrupted means the call was cancelled while waiting.
	SummaryInterrupted
	// SummaryFailed covers non-retryable request, auth and transport failures.
	SummaryFailed
)

func (s SummaryStatus) String() string {
	switch s {
	case SummaryOK:
		return "ok"
	case SummaryNoContent:
		return "no_content"
	case SummaryRateLimited:
		return "rate_limited"
	case SummaryOverloaded:
		return "overloaded"
	case SummaryInterrupted:
		return "interrupted"
	default:
		return "failed"
	}
}

// SummaryResult carries the generated text, or an error-tagged message when Status is not OK.
type SummaryResult struct {
	Status   SummaryStatus
	Text     string
	Attempts int
}

// OK reports whether Text holds a usable summary.
func (r SummaryResult) OK() bool {
	return r.Status == SummaryOK && r.Text != ""
}
