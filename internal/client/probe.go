package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Probe answers IsOnline from a cached health check that is repeated once
// the previous answer is older than ttl. Concurrent callers share one
// in-flight check and the lock is never held across it.
type Probe struct {
	url    string
	http   *http.Client
	ttl    time.Duration
	now    func() time.Time
	checks singleflight.Group

	mu        sync.Mutex
	online    bool
	checkedAt time.Time
}

// NewProbe creates a probe against baseURL + "/healthz". Each check times
// out after timeout.
func NewProbe(baseURL string, ttl, timeout time.Duration) *Probe {
	return &Probe{
		url:  baseURL + "/healthz",
		http: &http.Client{Timeout: timeout},
		ttl:  ttl,
		now:  time.Now,
	}
}

// IsOnline returns the cached reachability, checking again when stale
func (p *Probe) IsOnline(ctx context.Context) bool {
	p.mu.Lock()
	if !p.checkedAt.IsZero() && p.now().Sub(p.checkedAt) < p.ttl {
		online := p.online
		p.mu.Unlock()
		return online
	}
	p.mu.Unlock()
	return p.refresh(ctx)
}

// Refresh checks reachability now regardless of the cached answer
func (p *Probe) Refresh(ctx context.Context) bool {
	return p.refresh(ctx)
}

// Invalidate drops the cached answer, e.g. after a network change
func (p *Probe) Invalidate() {
	p.mu.Lock()
	p.checkedAt = time.Time{}
	p.mu.Unlock()
}

// refresh joins or starts the shared check. A caller whose context ends
// first gets the last known answer.
func (p *Probe) refresh(ctx context.Context) bool {
	ch := p.checks.DoChan("healthz", func() (any, error) {
		online := p.check(context.WithoutCancel(ctx))
		p.mu.Lock()
		p.online = online
		p.checkedAt = p.now()
		p.mu.Unlock()
		return online, nil
	})
	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.online
	}
}

func (p *Probe) check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
