package domain

// Direction is the traded side a signal resolves to.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionNone  Direction = "none"
)

// Decision is one session's trade decision for a symbol. Decisions are
// ephemeral: recomputed every session, never persisted.
type Decision struct {
	Symbol     string
	Direction  Direction
	EntryPrice float64 // decision-time open estimate
	Eligible   bool
	ModelID    string // the symmetric model that anchored the vote
}

// SizedDecision is a decision with a capital-allocated quantity attached.
type SizedDecision struct {
	Decision
	Quantity int64
}
