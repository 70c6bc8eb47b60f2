package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/plutov/paypal/v4"
)

// Paypal implements Gateway on top of the v2 checkout API: an order is
// created with the buyer's return addresses, approved on the provider's
// page, then captured on confirmation.
type Paypal struct {
	client *paypal.Client
}

func NewPaypal(client *paypal.Client) *Paypal {
	return &Paypal{client: client}
}

func (p *Paypal) Authorize(ctx context.Context, req AuthorizeRequest) (Authorization, error) {
	items := make([]paypal.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, paypal.Item{
			Quantity:    "1",
			Name:        it.Name,
			Description: it.Description,

			UnitAmount: &paypal.Money{
				Currency: req.Currency,
				Value:    strconv.Itoa(it.Price),
			},
		})
	}

	units := []paypal.PurchaseUnitRequest{{
		Items: items,

		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    strconv.Itoa(req.Amount),

			Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
				Currency: req.Currency,
				Value:    strconv.Itoa(req.Amount),
			}},
		},
	}}

	app := &paypal.ApplicationContext{
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	}

	ord, err := p.client.CreateOrder(ctx, "CAPTURE", units, nil, app)
	if err != nil {
		return Authorization{}, fmt.Errorf("creating paypal order: %w", err)
	}

	approval := ""
	for _, l := range ord.Links {
		if l.Rel == "approve" {
			approval = l.Href
			break
		}
	}

	if approval == "" {
		return Authorization{}, errors.New("paypal order carries no approval link")
	}

	return Authorization{ProviderID: ord.ID, ApprovalURL: approval}, nil
}

func (p *Paypal) Execute(ctx context.Context, providerID string, payerID string) (Execution, error) {
	resp, err := p.client.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
	if err != nil {
		return Execution{}, fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
	}

	exec := Execution{Status: resp.Status}

	// The captured amount is informational, a missing breakdown is not an
	// error as long as the status reports completion.
	for _, pu := range resp.PurchaseUnits {
		if pu.Payments == nil {
			continue
		}
		for _, cpt := range pu.Payments.Captures {
			if cpt.Amount == nil {
				continue
			}
			if v, err := strconv.Atoi(cpt.Amount.Value); err == nil {
				exec.Amount += v
			}
		}
	}

	return exec, nil
}
