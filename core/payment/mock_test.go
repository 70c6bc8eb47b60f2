package payment

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestMockAuthorizeThenExecute(t *testing.T) {
	m := NewMock("http://client.test/payment-return", time.Millisecond)
	ctx := context.Background()

	auth, err := m.Authorize(ctx, AuthorizeRequest{Amount: 2000, Currency: "USD"})
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}

	if !strings.HasPrefix(auth.ProviderID, "PAY-") {
		t.Fatalf("unexpected provider reference %q", auth.ProviderID)
	}

	u, err := url.Parse(auth.ApprovalURL)
	if err != nil {
		t.Fatalf("parsing approval URL: %v", err)
	}
	if u.Host != "client.test" || u.Path != "/payment-return" {
		t.Fatalf("approval URL %q does not target the return address", auth.ApprovalURL)
	}
	if got := u.Query().Get("paymentId"); got != auth.ProviderID {
		t.Fatalf("approval URL paymentId %q, want %q", got, auth.ProviderID)
	}
	if got := u.Query().Get("PayerID"); got != MockPayerID {
		t.Fatalf("approval URL PayerID %q, want %q", got, MockPayerID)
	}

	exec, err := m.Execute(ctx, auth.ProviderID, MockPayerID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if exec.Status != StatusCompleted {
		t.Fatalf("execute status %q, want %q", exec.Status, StatusCompleted)
	}
	if exec.Amount != 2000 {
		t.Fatalf("execute amount %d, want 2000", exec.Amount)
	}
}

func TestMockExecuteUnknownPayment(t *testing.T) {
	m := NewMock("http://client.test/payment-return", time.Millisecond)

	if _, err := m.Execute(context.Background(), "PAY-never-issued", MockPayerID); err == nil {
		t.Fatal("expected an error for an unknown payment reference")
	}
}

func TestMockHonorsContext(t *testing.T) {
	m := NewMock("http://client.test/payment-return", time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	if _, err := m.Authorize(ctx, AuthorizeRequest{Amount: 10, Currency: "USD"}); err == nil {
		t.Fatal("expected authorize to give up with the context")
	}
}
