package service

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors forming the business-rule taxonomy. Services wrap these
// with context via fmt.Errorf("...: %w", Err...); handlers map them to HTTP
// statuses with errors.Is.
var (
	// ErrNotFound: the referenced entity does not exist or is outside the
	// caller's business scope.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState: the operation is forbidden by the entity's current
	// status (e.g. modifying a non-open order).
	ErrInvalidState = errors.New("invalid state")

	// ErrInsufficientFunds: payments short of the due total, or a gift
	// card payment exceeding the card balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNotApplicable: a valid discount code matching zero eligible
	// lines, or redeemed outside its active window.
	ErrNotApplicable = errors.New("not applicable")

	// ErrConflict: overlapping reservation, or duplicate unique code.
	ErrConflict = errors.New("conflict")

	// ErrValidation: malformed input caught before any state change.
	ErrValidation = errors.New("validation failed")
)

// IsRecordNotFound reports whether err is the ORM's missing-row error.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
