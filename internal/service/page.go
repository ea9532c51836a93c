package service

import (
	"sync"

	"github.com/rongwang/finance-cockpit/internal/upstream"
)

// PageState is the loading/error state every page carries
type PageState struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// page sequences the loads of one controller.
// Only the latest load may write results; earlier ones that finish late are dropped.
// mu also guards the owning controller's data fields.
type page struct {
	mu    sync.Mutex
	seq   uint64
	state PageState
}

// begin starts a load: loading on, error cleared
func (p *page) begin() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	p.state.Loading = true
	p.state.Error = ""
	return p.seq
}

// finish ends load seq. On success apply runs under the lock; on failure the
// error message is stored and previous data is kept. Returns false for stale loads.
func (p *page) finish(seq uint64, err error, fallback string, apply func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		return false
	}

	if err != nil {
		p.state.Error = upstream.Message(err, fallback)
	} else if apply != nil {
		apply()
	}
	p.state.Loading = false
	return true
}

// pageState returns the current state; callers hold mu
func (p *page) pageState() PageState {
	return p.state
}

// processing tracks ids with an action in flight
type processing map[string]struct{}

func (p processing) ids() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	return ids
}
