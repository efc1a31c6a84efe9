// Package billing raises the valet parking fee when a guest departs.
// Invoicing is fire-and-forget from the coordinator's point of view: a
// billing failure is logged and never blocks or rolls back the departure.
package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/invoice"

	"github.com/harborview/valetops-backend/history"
)

// Invoicer creates the departure invoice for an archived stay.
type Invoicer interface {
	InvoiceDeparture(ctx context.Context, entry history.Entry) error
}

// StripeInvoicer bills through Stripe. The guest is created as a Stripe
// customer from the valet record; the invoice is finalized but left for the
// front desk to settle against the folio.
type StripeInvoicer struct {
	// NightlyFee is the valet fee per parked night, in the smallest
	// currency unit.
	NightlyFee int64
}

func NewStripeInvoicer(apiKey string, nightlyFee int64) *StripeInvoicer {
	stripe.Key = apiKey
	return &StripeInvoicer{NightlyFee: nightlyFee}
}

func (s *StripeInvoicer) InvoiceDeparture(ctx context.Context, entry history.Entry) error {
	cust, err := customer.New(&stripe.CustomerParams{
		Name:  stripe.String(entry.GuestName),
		Phone: stripe.String(entry.Phone),
	})
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}

	in, err := invoice.New(&stripe.InvoiceParams{
		Customer: stripe.String(cust.ID),
	})
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	nights := entry.ParkedNights()
	_, err = invoice.AddLines(in.ID, &stripe.InvoiceAddLinesParams{
		Lines: []*stripe.InvoiceAddLinesLineParams{
			{
				Amount:      stripe.Int64(s.NightlyFee * int64(nights)),
				Description: stripe.String(fmt.Sprintf("Valet parking - %d nights (tag %s)", nights, entry.Tag)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("add invoice lines: %w", err)
	}

	_, err = invoice.FinalizeInvoice(in.ID, &stripe.InvoiceFinalizeInvoiceParams{})
	if err != nil {
		return fmt.Errorf("finalize invoice: %w", err)
	}
	return nil
}
