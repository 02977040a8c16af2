package domain

// Action is where a composed message is routed.
type Action int

const (
	ActionSend Action = iota
	ActionDiscard
	ActionStore
)

func (a Action) String() string {
	switch a {
	case ActionSend:
		return "send"
	case ActionDiscard:
		return "discard"
	case ActionStore:
		return "store"
	default:
		return "unknown"
	}
}

// ComposeCommand carries the raw user input for one message of a batch.
type ComposeCommand struct {
	SequenceNumber int
	Recipient      string `validate:"required,za_cell"`
	Body           string `validate:"required"`
}
