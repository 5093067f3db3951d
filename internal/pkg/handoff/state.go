package handoff

import (
	"errors"
	"fmt"
)

// State is the lifecycle position of a payment handoff.
type State string

const (
	StateNone             State = ""
	StateInitiated        State = "initiated"
	StatePaymentConfirmed State = "payment_confirmed"
	StateProvisioned      State = "provisioned"
	StateExpired          State = "expired"
)

// Trigger is an event that moves a handoff between states.
type Trigger string

const (
	// TriggerCheckoutCreated fires when a hosted checkout session is created.
	TriggerCheckoutCreated Trigger = "checkout_created"
	// TriggerPaymentConfirmed fires on the provider redirect or a verified
	// checkout.session.completed webhook.
	TriggerPaymentConfirmed Trigger = "payment_confirmed"
	// TriggerExpire fires when a read finds the record past MaxAge.
	TriggerExpire Trigger = "expire"
	// TriggerProvisioned fires after the backend created the account.
	TriggerProvisioned Trigger = "provisioned"
)

var (
	ErrAlreadyProvisioned  = errors.New("payment handoff already provisioned")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
	ErrHandoffExpired      = errors.New("payment handoff expired")
	ErrInvalidTransition   = errors.New("invalid payment handoff transition")
)

// Transition returns the state reached from `from` when trigger fires.
// Provisioned is terminal: a confirmation after provisioning is absorbed and a
// second provisioning is refused.
func Transition(from State, trigger Trigger) (State, error) {
	switch trigger {
	case TriggerCheckoutCreated:
		if from == StateNone || from == StateInitiated {
			return StateInitiated, nil
		}
	case TriggerPaymentConfirmed:
		if from == StateProvisioned {
			return StateProvisioned, nil
		}
		return StatePaymentConfirmed, nil
	case TriggerExpire:
		switch from {
		case StateInitiated, StatePaymentConfirmed, StateExpired:
			return StateExpired, nil
		case StateProvisioned:
			return StateProvisioned, nil
		}
	case TriggerProvisioned:
		switch from {
		// A handoff seen only through the browser record has no server row yet.
		case StateNone, StatePaymentConfirmed:
			return StateProvisioned, nil
		case StateProvisioned:
			return from, ErrAlreadyProvisioned
		case StateInitiated:
			return from, ErrPaymentNotConfirmed
		case StateExpired:
			return from, ErrHandoffExpired
		}
	}
	return from, fmt.Errorf("%w: %s from %q", ErrInvalidTransition, trigger, from)
}
