package payment

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/irsalhamdi/course-market/random"
)

// MockPayerID is the payer reference every synthesized approval URL carries.
const MockPayerID = "MOCK-PAYER"

// Mock is a deterministic Gateway: it waits a fixed delay, then succeeds.
// The approval URL points straight at the configured return address with
// the paymentId/PayerID query parameters a real provider would append.
type Mock struct {
	returnURL string
	delay     time.Duration

	mu      sync.Mutex
	amounts map[string]int
}

func NewMock(returnURL string, delay time.Duration) *Mock {
	return &Mock{
		returnURL: returnURL,
		delay:     delay,
		amounts:   make(map[string]int),
	}
}

func (m *Mock) Authorize(ctx context.Context, req AuthorizeRequest) (Authorization, error) {
	if err := m.wait(ctx); err != nil {
		return Authorization{}, err
	}

	id := "PAY-" + random.String(12)

	m.mu.Lock()
	m.amounts[id] = req.Amount
	m.mu.Unlock()

	u, err := url.Parse(m.returnURL)
	if err != nil {
		return Authorization{}, fmt.Errorf("parsing return URL: %w", err)
	}

	q := u.Query()
	q.Set("paymentId", id)
	q.Set("PayerID", MockPayerID)
	u.RawQuery = q.Encode()

	return Authorization{ProviderID: id, ApprovalURL: u.String()}, nil
}

func (m *Mock) Execute(ctx context.Context, providerID string, payerID string) (Execution, error) {
	if err := m.wait(ctx); err != nil {
		return Execution{}, err
	}

	m.mu.Lock()
	amount, ok := m.amounts[providerID]
	m.mu.Unlock()

	if !ok {
		return Execution{}, fmt.Errorf("unknown payment[%s]", providerID)
	}

	return Execution{Status: StatusCompleted, Amount: amount}, nil
}

func (m *Mock) wait(ctx context.Context) error {
	select {
	case <-time.After(m.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
