package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/irsalhamdi/course-market/api"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/payment"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/rate"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
)

// ReturnURL is where the mock gateway sends the buyer after approval.
const ReturnURL = "http://client.test/payment-return"

var (
	bootOnce sync.Once
	bootErr  error
	pool     *dockertest.Pool
	resource *dockertest.Resource
	pgHost   string
)

// boot starts one throwaway postgres container shared by every test env.
func boot() error {
	bootOnce.Do(func() {
		pool, bootErr = dockertest.NewPool("")
		if bootErr != nil {
			bootErr = fmt.Errorf("connecting to docker: %w", bootErr)
			return
		}

		resource, bootErr = pool.Run("postgres", "15-alpine", []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=postgres",
		})
		if bootErr != nil {
			bootErr = fmt.Errorf("starting postgres container: %w", bootErr)
			return
		}

		// Hard stop in case a test run dies before teardown.
		resource.Expire(600)

		pgHost = resource.GetHostPort("5432/tcp")

		bootErr = pool.Retry(func() error {
			db, err := database.Open(adminCfg())
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Ping()
		})
		if bootErr != nil {
			bootErr = fmt.Errorf("waiting for postgres: %w", bootErr)
		}
	})
	return bootErr
}

func teardown() {
	if pool != nil && resource != nil {
		pool.Purge(resource)
	}
}

func adminCfg() config.DB {
	return config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       pgHost,
		Name:       "postgres",
		DisableTLS: true,
	}
}

// testGateway wraps the deterministic mock so a test can force execution
// failures, which the shipped double never produces on its own.
type testGateway struct {
	*payment.Mock

	mu          sync.Mutex
	failExecute bool
}

func (g *testGateway) FailExecute(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failExecute = fail
}

func (g *testGateway) Execute(ctx context.Context, providerID string, payerID string) (payment.Execution, error) {
	g.mu.Lock()
	fail := g.failExecute
	g.mu.Unlock()

	if fail {
		return payment.Execution{}, fmt.Errorf("forced execution failure for payment[%s]", providerID)
	}

	return g.Mock.Execute(ctx, providerID, payerID)
}

type TestEnv struct {
	DB      *sqlx.DB
	URL     string
	Server  *httptest.Server
	Gateway *testGateway

	client *http.Client
}

// NewTestEnv creates a dedicated database named after the test and serves
// the full API over it with the mock payment gateway.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	if err := boot(); err != nil {
		return nil, err
	}

	admin, err := database.Open(adminCfg())
	if err != nil {
		return nil, fmt.Errorf("opening admin connection: %w", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("DROP DATABASE IF EXISTS " + name); err != nil {
		return nil, fmt.Errorf("dropping stale database: %w", err)
	}
	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	cfg := adminCfg()
	cfg.Name = name
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening test database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	session := scs.New()
	session.Lifetime = time.Hour

	gw := &testGateway{Mock: payment.NewMock(ReturnURL, time.Millisecond)}

	mux := api.APIMux(api.APIConfig{
		Log:     logger,
		DB:      db,
		Session: session,
		Gateway: gw,
		PaymentCfg: config.Payment{
			Provider:  "mock",
			Currency:  "USD",
			ReturnURL: ReturnURL,
			CancelURL: "http://client.test/payment-cancel",
		},
		CheckoutRate: rate.NewLimiter(1000, 100, 1000),
	})

	server := httptest.NewServer(mux)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	env := &TestEnv{
		DB:      db,
		URL:     server.URL,
		Server:  server,
		Gateway: gw,
		client:  &http.Client{Jar: jar},
	}

	t.Cleanup(func() {
		server.Close()
		db.Close()
	})

	return env, nil
}

func (e *TestEnv) Client() *http.Client {
	return e.client
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Retryable bool            `json:"retryable"`
	Data      json.RawMessage `json:"data"`
}

// do sends a JSON request, asserts the status code and decodes the
// envelope's data into out when asked for.
func (e *TestEnv) do(t *testing.T, method string, path string, in any, out any, want int) envelope {
	t.Helper()

	var body *bytes.Buffer
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}

	r, err := http.NewRequest(method, e.URL+path, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := e.client.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer w.Body.Close()

	if w.StatusCode != want {
		t.Fatalf("%s %s: status code %s, want %d", method, path, w.Status, want)
	}

	var env envelope
	if w.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
			t.Fatalf("%s %s: decoding envelope: %v", method, path, err)
		}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("%s %s: decoding data: %v", method, path, err)
		}
	}

	return env
}

func (e *TestEnv) login(t *testing.T, userID string, role string) {
	t.Helper()

	in := map[string]string{"userId": userID, "name": "user " + userID, "role": role}
	e.do(t, http.MethodPost, "/auth/session", in, nil, http.StatusOK)
}

func (e *TestEnv) logout(t *testing.T) {
	t.Helper()

	e.do(t, http.MethodPost, "/auth/logout", nil, nil, http.StatusNoContent)
}
