package stripe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"ride-share/internal/ports"

	stripego "github.com/stripe/stripe-go/v76"
)

type recorded struct {
	method, path, idempotency string
	form                      map[string]string
}

func newTestProcessor(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Processor, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		mu.Lock()
		reqs = append(reqs, recorded{r.Method, r.URL.Path, r.Header.Get("Idempotency-Key"), form})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(srv.URL),
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	})
	p := NewProcessor("sk_test_123", "", &stripego.Backends{API: backend, Connect: backend, Uploads: backend})
	return p, &reqs
}

func TestCreateIntentSendsManualCaptureAndKey(t *testing.T) {
	p, reqs := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","status":"requires_payment_method"}`))
	})

	ref, err := p.CreateIntent(context.Background(), ports.IntentRequest{
		AmountCents:    1875,
		IdempotencyKey: "booking-b1",
		Metadata:       map[string]string{"booking_id": "b1"},
	})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if ref != "pi_123" {
		t.Fatalf("ref = %q", ref)
	}

	got := (*reqs)[0]
	if got.method != http.MethodPost || got.path != "/v1/payment_intents" {
		t.Fatalf("request = %s %s", got.method, got.path)
	}
	if got.idempotency != "booking-b1" {
		t.Fatalf("idempotency key = %q", got.idempotency)
	}
	want := map[string]string{
		"amount":               "1875",
		"currency":             "usd",
		"capture_method":       "manual",
		"metadata[booking_id]": "b1",
	}
	for k, v := range want {
		if got.form[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, got.form[k], v)
		}
	}
}

func TestIntentStatusMapping(t *testing.T) {
	cases := map[string]ports.IntentState{
		"requires_capture":        ports.IntentAwaitingCapture,
		"succeeded":               ports.IntentSucceeded,
		"requires_payment_method": ports.IntentOther,
		"canceled":                ports.IntentOther,
	}
	for status, want := range cases {
		status := status
		p, _ := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"pi_1","object":"payment_intent","status":"` + status + `"}`))
		})
		got, err := p.IntentStatus(context.Background(), "pi_1")
		if err != nil {
			t.Fatalf("IntentStatus: %v", err)
		}
		if got != want {
			t.Errorf("%s -> %s, want %s", status, got, want)
		}
	}
}

func TestRefundTargetsIntent(t *testing.T) {
	p, reqs := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"re_1","object":"refund","status":"succeeded"}`))
	})
	if err := p.Refund(context.Background(), "pi_9"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
	got := (*reqs)[0]
	if got.path != "/v1/refunds" || got.form["payment_intent"] != "pi_9" {
		t.Fatalf("request = %+v", got)
	}
}

func TestProcessorErrorsSurface(t *testing.T) {
	p, _ := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"This PaymentIntent could not be captured"}}`))
	})
	if err := p.Capture(context.Background(), "pi_1"); err == nil {
		t.Fatal("expected capture error")
	}
}
