package core

import "github.com/pkg/errors"

// Authorization errors.
var (
	// ErrUnauthorized is returned when the required role holder did not sign
	// the request.
	ErrUnauthorized = errors.New("required signer is missing or unauthorized")
)

// State errors: the targeted record exists but is in the wrong lifecycle
// state for the requested transition.
var (
	ErrAlreadyInitialized  = errors.New("record already initialized")
	ErrAlreadyExists       = errors.New("record already exists")
	ErrVetoPeriodEnded     = errors.New("slash proposal veto period ended")
	ErrVetoPeriodNotEnded  = errors.New("slash proposal veto period not ended")
	ErrProposalCompleted   = errors.New("slash proposal already completed")
	ErrProposalNotResolved = errors.New("slash proposal is not in a terminal state")
	ErrRetentionNotElapsed = errors.New("slash proposal retention window not elapsed")
)

// Identity errors: the supplied address, record envelope, or program
// identity does not match expectations. These always fail closed.
var (
	ErrWrongProgram  = errors.New("incorrect program identity")
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRecord = errors.New("record has invalid discriminator or owner")
)

// Validation errors.
var (
	ErrZeroSlashAmount = errors.New("slash amount must be greater than zero")
	ErrMalformedInput  = errors.New("malformed instruction payload")
)

// ErrTransferFailed wraps a failure of the external custody transfer
// capability. The proposal latch is never set when this is returned, so the
// caller may resubmit the execute operation.
var ErrTransferFailed = errors.New("custody transfer failed")
