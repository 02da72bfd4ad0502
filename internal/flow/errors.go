package flow

import (
	"errors"

	"github.com/avro07/spay/internal/wallet"
)

// Kind groups flow errors by how a caller should present them.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindBusinessRule      Kind = "business_rule"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindAuthentication    Kind = "authentication"
	KindState             Kind = "state"
	KindUnknown           Kind = "unknown"
)

// Error is a flow rejection with a presentation kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrUnsupportedCategory = &Error{Kind: KindValidation, Message: "category cannot be started"}
	ErrInvalidRecipient    = &Error{Kind: KindValidation, Message: "recipient must be an 11-digit wallet number"}
	ErrRecipientRequired   = &Error{Kind: KindValidation, Message: "recipient account is required"}
	ErrInvalidAmount       = &Error{Kind: KindValidation, Message: "amount must be a number"}
	ErrAmountBelowMinimum  = &Error{Kind: KindValidation, Message: "amount is below the minimum"}
	ErrInvalidProvider     = &Error{Kind: KindValidation, Message: "unknown mfs provider"}
	ErrProviderNotAllowed  = &Error{Kind: KindValidation, Message: "provider applies to mfs transfers only"}
	ErrInvalidPreset       = &Error{Kind: KindValidation, Message: "not a preset amount"}
	ErrPINFormat           = &Error{Kind: KindValidation, Message: "pin must be 4 digits"}
	ErrAgentRecipient      = &Error{Kind: KindBusinessRule, Message: "recipient is an agent; use cash out instead"}
	ErrWrongPIN            = &Error{Kind: KindAuthentication, Message: "wrong pin"}
	ErrWrongStep           = &Error{Kind: KindState, Message: "action not available at this step"}
	ErrFlowClosed          = &Error{Kind: KindState, Message: "flow is no longer active"}
	ErrHoldReleased        = &Error{Kind: KindState, Message: "confirm released before completion"}

	// ErrInsufficientFunds is returned, wrapped in *wallet.InsufficientFundsError, when a debit is not covered.
	ErrInsufficientFunds = wallet.ErrInsufficientFunds
)

// KindOf classifies err.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, wallet.ErrInsufficientFunds) {
		return KindInsufficientFunds
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
