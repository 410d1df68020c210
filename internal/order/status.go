package order

// Status is the display label of an order's state. The labels are part of the
// public API and are shown to users as-is.
type Status string

const (
	StatusOpen       Status = "Aberto"
	StatusInProgress Status = "Em Andamento"
	StatusDone       Status = "Finalizado"
	StatusCanceled   Status = "Cancelado"
)

// AllStatuses lists every status in display order.
func AllStatuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusDone, StatusCanceled}
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool { return s == StatusCanceled }

// Advance moves one step along Aberto -> Em Andamento -> Finalizado -> Aberto.
// Cancelado is absorbing and maps to itself.
func Advance(s Status) Status {
	switch s {
	case StatusOpen:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	case StatusDone:
		return StatusOpen
	default:
		return s
	}
}

// Cancel maps any status to Cancelado.
func Cancel(Status) Status { return StatusCanceled }

// Transition computes the next status for an order currently in s.
type Transition func(s Status) (Status, error)

// AdvanceTransition refuses to move canceled orders.
func AdvanceTransition(s Status) (Status, error) {
	if s.Terminal() {
		return s, ErrCanceled
	}
	return Advance(s), nil
}

func CancelTransition(s Status) (Status, error) {
	return Cancel(s), nil
}
