package trading

import "errors"

var (
	// ErrEmptyPosition is returned when a close or split is attempted on a
	// position with no orders; its closed date cannot be determined.
	ErrEmptyPosition = errors.New("position has no orders")

	// ErrPositionClosed is returned when a mutation is attempted on a
	// position that has already been closed.
	ErrPositionClosed = errors.New("position is closed")

	// ErrIntegrityViolation indicates more than one open position exists
	// for a single market. This is corrupted prior state, not a
	// recoverable condition: routing must never silently pick one.
	ErrIntegrityViolation = errors.New("multiple open positions in one market")

	// ErrOrderNotFound is returned when an order id does not belong to the
	// position or portfolio being operated on.
	ErrOrderNotFound = errors.New("order not found")

	// ErrPositionNotFound is returned when a position id is unknown.
	ErrPositionNotFound = errors.New("position not found")
)
