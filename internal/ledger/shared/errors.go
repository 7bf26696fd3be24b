package shared

import "errors"

var (
	// ErrInvalidInput indicates a malformed request rejected before any write.
	ErrInvalidInput = errors.New("ledger: invalid input")
	// ErrNotFound indicates a referenced record missing or outside the tenant.
	ErrNotFound = errors.New("ledger: not found")
	// ErrConflict indicates a uniqueness violation, e.g. duplicate account code.
	ErrConflict = errors.New("ledger: conflict")
	// ErrUnbalanced indicates debit and credit totals differ.
	ErrUnbalanced = errors.New("ledger: journal lines must balance")
	// ErrTooFewLines indicates a posting without lines.
	ErrTooFewLines = errors.New("ledger: posting requires at least one line")
	// ErrOverpayment indicates a payment exceeding the remaining balance.
	ErrOverpayment = errors.New("ledger: payment exceeds remaining balance")
	// ErrConcurrencyConflict indicates a competing write was detected and retries ran out.
	ErrConcurrencyConflict = errors.New("ledger: concurrent modification, retry")
	// ErrStoreUnavailable indicates a transient store failure.
	ErrStoreUnavailable = errors.New("ledger: store unavailable")
)
