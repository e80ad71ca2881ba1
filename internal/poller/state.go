package poller

import "ai-docview/internal/entity"

type Phase int

const (
	// Idle: no document id or no credential yet.
	Idle Phase = iota
	Fetching
	// ProcessingWait: the last answer said "processing" and a retry timer is armed.
	ProcessingWait
	Ready
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case ProcessingWait:
		return "processing"
	case Ready:
		return "ready"
	case Error:
		return "error"
	}
	return "unknown"
}

// Terminal reports whether the loop stops polling in this phase.
func (p Phase) Terminal() bool {
	return p == Ready || p == Error
}

// State is a point-in-time copy of a Loop. Last is shared with the loop and
// must be treated as read-only.
type State struct {
	DocumentId string
	Phase      Phase
	Progress   int
	IsLoading  bool
	Last       *entity.Document
	Err        error
	Generation uint64
}
