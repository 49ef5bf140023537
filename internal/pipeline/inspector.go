package pipeline

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ernie/skin-inspect/internal/identity"
)

// ErrSuperseded is returned to an Inspect call whose item was replaced by a
// newer Inspect before it finished.
var ErrSuperseded = errors.New("inspect superseded by a newer item")

// Sink receives materials to render. Only the latest item's material is
// ever applied.
type Sink interface {
	Apply(m *ResolvedRenderMaterial)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(m *ResolvedRenderMaterial)

// Apply calls f.
func (f SinkFunc) Apply(m *ResolvedRenderMaterial) { f(m) }

// Inspector tracks the item currently being shown. Each request supersedes
// the previous one: the older request's context is cancelled and, should
// its result still arrive, it is dropped rather than applied. Requests are
// ordered by when Begin was called, not by when they run.
type Inspector struct {
	resolver *Resolver
	sink     Sink

	// applyMu serializes sink calls so an older result can never be
	// applied after a newer one.
	applyMu sync.Mutex

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *ResolvedRenderMaterial
}

// NewInspector returns an inspector that applies results to sink, which may
// be nil. The sink runs outside the inspector's state lock and may call
// Current.
func NewInspector(r *Resolver, sink Sink) *Inspector {
	return &Inspector{resolver: r, sink: sink}
}

// Request is an inspect request that already holds its place in line.
type Request struct {
	in     *Inspector
	ctx    context.Context
	cancel context.CancelFunc
	seq    uint64
	id     string
}

// Begin makes a new request the latest one and cancels the previous
// request. Call Run on the result, possibly from another goroutine.
func (in *Inspector) Begin(ctx context.Context) *Request {
	ctx, cancel := context.WithCancel(ctx)

	in.mu.Lock()
	in.seq++
	seq := in.seq
	if in.cancel != nil {
		in.cancel()
	}
	in.cancel = cancel
	in.mu.Unlock()

	return &Request{in: in, ctx: ctx, cancel: cancel, seq: seq, id: uuid.NewString()}
}

// Inspect resolves desc and, if no newer request has begun meanwhile,
// applies and returns the material.
func (in *Inspector) Inspect(ctx context.Context, desc identity.ItemDescriptor) (*ResolvedRenderMaterial, error) {
	return in.Begin(ctx).Run(desc)
}

// Run resolves desc for this request. A request overtaken by a newer Begin
// returns ErrSuperseded and its material is never applied.
func (r *Request) Run(desc identity.ItemDescriptor) (*ResolvedRenderMaterial, error) {
	in := r.in
	defer r.cancel()

	verbose := in.resolver.verbose
	if verbose {
		log.Printf("Inspect %s: %q paint=%v wear=%.4f", r.id, desc.FullName, paintString(desc.PaintIndex), desc.Wear)
	}

	m, err := in.resolver.Resolve(r.ctx, desc)

	in.applyMu.Lock()
	defer in.applyMu.Unlock()

	in.mu.Lock()
	if r.seq != in.seq {
		in.mu.Unlock()
		if verbose {
			log.Printf("Inspect %s: superseded, result dropped", r.id)
		}
		return nil, ErrSuperseded
	}
	in.cancel = nil
	if err == nil {
		in.current = m
	}
	in.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if in.sink != nil {
		in.sink.Apply(m)
	}
	return m, nil
}

// Current returns the last applied material, or nil.
func (in *Inspector) Current() *ResolvedRenderMaterial {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.current
}

func paintString(p *int) any {
	if p == nil {
		return "none"
	}
	return *p
}
