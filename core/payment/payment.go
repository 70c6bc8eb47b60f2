package payment

import "context"

// StatusCompleted is the provider status reported by a fully captured
// payment. Anything else means the money did not move.
const StatusCompleted = "COMPLETED"

type LineItem struct {
	Name        string
	Description string
	Price       int
}

type AuthorizeRequest struct {
	Amount    int
	Currency  string
	Items     []LineItem
	ReturnURL string
	CancelURL string
}

// Authorization is the provider's answer to an authorize request: its own
// reference for the payment and the page the buyer must approve it on.
type Authorization struct {
	ProviderID  string
	ApprovalURL string
}

type Execution struct {
	Status string
	Amount int
}

// Gateway is the only surface the purchase flow knows about a payment
// provider. The live variant talks to the provider over the network, the
// mock variant is a deterministic drop-in for tests and local runs.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (Authorization, error)
	Execute(ctx context.Context, providerID string, payerID string) (Execution, error)
}
