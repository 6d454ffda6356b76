package collection

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected operation so callers can map it to a
// transport status without parsing messages.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindReentrancy
	KindIndex
	KindTransfer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindReentrancy:
		return "reentrancy"
	case KindIndex:
		return "index"
	case KindTransfer:
		return "transfer"
	}
	panic(int(k))
}

// Error wraps a sentinel cause with its kind. errors.Is and errors.As
// see through it.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

var (
	ErrSealed        = errors.New("minting permanently disabled")
	ErrZeroAmount    = errors.New("mint amount must be positive")
	ErrMintLimit     = errors.New("mint amount exceeds per-call limit")
	ErrPaused        = errors.New("minting paused")
	ErrReentered     = errors.New("reentrant call")
	ErrNotStarted    = errors.New("minting not started")
	ErrProgramCaller = errors.New("program callers not allowed")
	ErrPayment       = errors.New("insufficient payment")
	ErrSupply        = errors.New("maximum supply exceeded")
	ErrEmptyVault    = errors.New("vault balance is zero")
	ErrNotOwner      = errors.New("caller is not the collection owner")
	ErrNotTokenOwner = errors.New("caller does not own the token")
	ErrIndexRange    = errors.New("index out of range")
	ErrPriceCeiling  = errors.New("unit price exceeds ceiling")
	ErrNegativePrice = errors.New("unit price must not be negative")
	ErrEmptyAccount  = errors.New("account must not be empty")
)

func validationError(cause error) error {
	return &Error{Kind: KindValidation, Cause: cause}
}

func authorizationError(cause error) error {
	return &Error{Kind: KindAuthorization, Cause: cause}
}

func reentrancyError(cause error) error {
	return &Error{Kind: KindReentrancy, Cause: cause}
}

func indexError(cause error) error {
	return &Error{Kind: KindIndex, Cause: cause}
}

func transferError(cause error) error {
	return &Error{Kind: KindTransfer, Cause: cause}
}
