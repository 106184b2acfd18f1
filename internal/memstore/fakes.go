package memstore

import (
	"context"
	"fmt"
	"sync"

	"ride-share/internal/domain/geo"
	"ride-share/internal/domain/notification"
	"ride-share/internal/ports"
)

// StaticQuotes answers every estimate with Price, or Err when set.
type StaticQuotes struct {
	Price float64
	Err   error

	mu       sync.Mutex
	Requests []ports.QuoteRequest
}

func (q *StaticQuotes) Estimate(_ context.Context, req ports.QuoteRequest) (float64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Requests = append(q.Requests, req)
	if q.Err != nil {
		return 0, q.Err
	}
	return q.Price, nil
}

// Processor is an in-memory payment processor. Intents created with the same
// idempotency key return the same reference.
type Processor struct {
	mu       sync.Mutex
	byKey    map[string]string
	states   map[string]ports.IntentState
	Calls    []string
	FailWith error
}

func NewProcessor() *Processor {
	return &Processor{byKey: map[string]string{}, states: map[string]ports.IntentState{}}
}

func (p *Processor) record(call string) error {
	p.Calls = append(p.Calls, call)
	return p.FailWith
}

func (p *Processor) CreateIntent(_ context.Context, req ports.IntentRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("create:" + req.IdempotencyKey); err != nil {
		return "", err
	}
	if ref, ok := p.byKey[req.IdempotencyKey]; ok {
		return ref, nil
	}
	ref := fmt.Sprintf("pi_%d", len(p.byKey)+1)
	p.byKey[req.IdempotencyKey] = ref
	p.states[ref] = ports.IntentAwaitingCapture
	return ref, nil
}

// SetState overrides the processor-side state of ref.
func (p *Processor) SetState(ref string, s ports.IntentState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[ref] = s
}

func (p *Processor) IntentStatus(_ context.Context, ref string) (ports.IntentState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("status:" + ref); err != nil {
		return "", err
	}
	s, ok := p.states[ref]
	if !ok {
		return "", fmt.Errorf("no such intent: %s", ref)
	}
	return s, nil
}

func (p *Processor) Capture(_ context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("capture:" + ref); err != nil {
		return err
	}
	p.states[ref] = ports.IntentSucceeded
	return nil
}

func (p *Processor) Refund(_ context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record("refund:" + ref)
}

func (p *Processor) CancelIntent(_ context.Context, ref string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("cancel:" + ref); err != nil {
		return err
	}
	p.states[ref] = ports.IntentOther
	return nil
}

// CallLog returns a copy of every processor call in order.
func (p *Processor) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Calls...)
}

// Sent is one recorded notification.
type Sent struct {
	Kind    notification.Kind
	Payload notification.Payload
}

// Recorder keeps every notification it is asked to send.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

func (r *Recorder) Notify(_ context.Context, kind notification.Kind, payload notification.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Kind: kind, Payload: payload})
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Geocoder resolves addresses from a fixed table.
type Geocoder map[string]geo.Point

func (g Geocoder) Resolve(_ context.Context, address string) (geo.Point, error) {
	p, ok := g[address]
	if !ok {
		return geo.Point{}, fmt.Errorf("address not found: %q", address)
	}
	return p, nil
}
