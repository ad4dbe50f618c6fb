package stripe

import (
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/zerovacancy/payments/internal/domain/provider"
)

func unixTime(ts int64) time.Time {
	return time.Unix(ts, 0).UTC()
}

func unixTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := unixTime(ts)
	return &t
}

// toMap snapshots a stripe object as a JSON object.
func toMap(v interface{}) map[string]interface{} {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return rawMap(b)
}

func rawMap(b []byte) map[string]interface{} {
	var out map[string]interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func toAccount(a *stripe.Account) *provider.Account {
	return &provider.Account{
		ID:               a.ID,
		Country:          a.Country,
		Email:            a.Email,
		DetailsSubmitted: a.DetailsSubmitted,
		ChargesEnabled:   a.ChargesEnabled,
		PayoutsEnabled:   a.PayoutsEnabled,
		Metadata:         a.Metadata,
		Raw:              toMap(a),
	}
}

func toSubscription(s *stripe.Subscription, raw map[string]interface{}) *provider.Subscription {
	out := &provider.Subscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		CurrentPeriodStart: unixTimePtr(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTimePtr(s.CurrentPeriodEnd),
		CancelAt:           unixTimePtr(s.CancelAt),
		CanceledAt:         unixTimePtr(s.CanceledAt),
		Metadata:           s.Metadata,
		Raw:                raw,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	if s.LatestInvoice != nil && s.LatestInvoice.PaymentIntent != nil {
		out.PaymentIntentID = s.LatestInvoice.PaymentIntent.ID
		out.ClientSecret = s.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out
}

func toPaymentIntent(pi *stripe.PaymentIntent, raw map[string]interface{}) *provider.PaymentIntent {
	out := &provider.PaymentIntent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
		Metadata:     pi.Metadata,
		Raw:          raw,
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	if pi.LastPaymentError != nil {
		out.LastErrorMessage = pi.LastPaymentError.Msg
	}
	return out
}

func toInvoice(in *stripe.Invoice, raw map[string]interface{}) *provider.Invoice {
	out := &provider.Invoice{
		ID:          in.ID,
		AmountPaid:  in.AmountPaid,
		Currency:    string(in.Currency),
		Description: in.Description,
		Raw:         raw,
	}
	if in.Customer != nil {
		out.CustomerID = in.Customer.ID
	}
	if in.Subscription != nil {
		out.SubscriptionID = in.Subscription.ID
	}
	if in.PaymentIntent != nil {
		out.PaymentIntentID = in.PaymentIntent.ID
	}
	if in.StatusTransitions != nil {
		out.PaidAt = unixTimePtr(in.StatusTransitions.PaidAt)
	}
	return out
}
