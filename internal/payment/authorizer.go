// Package payment abstracts the payment provider behind an Authorizer.
// Provider integration details are deliberately out of scope; the offline
// implementation authorizes every intent deterministically so the order path
// can run end to end without external credentials.
package payment

import (
	"context"
	"fmt"
	"sync"

	"foodshare/internal/models"

	"github.com/google/uuid"
)

// IntentStatus is the lifecycle state of a payment intent.
type IntentStatus string

const (
	IntentStatusRequiresConfirmation IntentStatus = "requires_confirmation"
	IntentStatusSucceeded            IntentStatus = "succeeded"
)

// Intent is a provider-agnostic payment intent.
type Intent struct {
	Ref      string       `json:"ref"`
	Amount   float64      `json:"amount"`
	Currency string       `json:"currency"`
	Status   IntentStatus `json:"status"`
}

// Authorizer creates and confirms payment intents.
type Authorizer interface {
	CreateIntent(ctx context.Context, amount float64, currency string) (*Intent, error)
	ConfirmIntent(ctx context.Context, ref string) (*Intent, error)
}

// OfflineAuthorizer is an in-memory Authorizer that approves everything.
type OfflineAuthorizer struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

// NewOfflineAuthorizer returns a new OfflineAuthorizer.
func NewOfflineAuthorizer() *OfflineAuthorizer {
	return &OfflineAuthorizer{intents: make(map[string]*Intent)}
}

// CreateIntent registers a new intent awaiting confirmation.
func (a *OfflineAuthorizer) CreateIntent(_ context.Context, amount float64, currency string) (*Intent, error) {
	if amount <= 0 {
		return nil, models.NewValidationError("Payment amount must be positive")
	}
	if currency == "" {
		currency = "usd"
	}

	intent := &Intent{
		Ref:      "pi_" + uuid.NewString(),
		Amount:   amount,
		Currency: currency,
		Status:   IntentStatusRequiresConfirmation,
	}

	a.mu.Lock()
	a.intents[intent.Ref] = intent
	a.mu.Unlock()
	return intent, nil
}

// ConfirmIntent marks the intent succeeded. Confirming twice is idempotent.
func (a *OfflineAuthorizer) ConfirmIntent(_ context.Context, ref string) (*Intent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	intent, ok := a.intents[ref]
	if !ok {
		return nil, models.NewNotFoundError("Payment intent", ref)
	}
	intent.Status = IntentStatusSucceeded

	out := *intent
	return &out, nil
}

// String implements fmt.Stringer for log output.
func (i *Intent) String() string {
	return fmt.Sprintf("%s %.2f %s (%s)", i.Ref, i.Amount, i.Currency, i.Status)
}
