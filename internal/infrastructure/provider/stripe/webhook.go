package stripe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/zerovacancy/payments/internal/domain/provider"
)

// EventVerifier checks Stripe-Signature headers and decodes event objects.
// It needs only the webhook secret, not an API key.
type EventVerifier struct{}

func NewEventVerifier() *EventVerifier {
	return &EventVerifier{}
}

func (v *EventVerifier) ConstructEvent(payload []byte, signature, secret string) (*provider.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &provider.Event{
		ID:      event.ID,
		Type:    string(event.Type),
		Created: unixTime(event.Created),
	}
	if event.Data == nil {
		return out, nil
	}

	raw := event.Data.Raw
	switch {
	case strings.HasPrefix(out.Type, "customer.subscription."):
		var sub stripe.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		out.Subscription = toSubscription(&sub, rawMap(raw))
	case strings.HasPrefix(out.Type, "invoice."):
		var in stripe.Invoice
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		out.Invoice = toInvoice(&in, rawMap(raw))
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(raw, &pi); err != nil {
			return nil, fmt.Errorf("failed to decode payment intent: %w", err)
		}
		out.PaymentIntent = toPaymentIntent(&pi, rawMap(raw))
	case strings.HasPrefix(out.Type, "account."):
		var acct stripe.Account
		if err := json.Unmarshal(raw, &acct); err != nil {
			return nil, fmt.Errorf("failed to decode account: %w", err)
		}
		a := toAccount(&acct)
		a.Raw = rawMap(raw)
		out.Account = a
	}

	return out, nil
}
