package config

import "time"

type Config struct {
	Web     Web
	Cors    Cors
	DB      DB
	Session Session
	Rate    Rate
	Payment Payment
	Paypal  Paypal
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:market"`
	DisableTLS bool   `conf:"default:true"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
}

type Rate struct {
	CheckoutBurst  int     `conf:"default:5"`
	CheckoutRPS    float64 `conf:"default:1"`
	ClientExpiryMn int     `conf:"default:60"`
}

// Payment selects the gateway variant and the addresses the provider sends
// the buyer back to after approval or abandonment.
type Payment struct {
	Provider  string        `conf:"default:mock"`
	Currency  string        `conf:"default:USD"`
	ReturnURL string        `conf:"default:http://localhost:5173/payment-return"`
	CancelURL string        `conf:"default:http://localhost:5173/payment-cancel"`
	MockDelay time.Duration `conf:"default:50ms"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}
