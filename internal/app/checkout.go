package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/domain"
)

// CheckoutService owns handed-off checkout state and the payment views built
// from it.
type CheckoutService struct {
	handoffs *HandoffStore
	deps     PaymentDeps
	now      func() time.Time

	mu    sync.Mutex
	views map[string]*PaymentView
}

func NewCheckoutService(h *HandoffStore, deps PaymentDeps) *CheckoutService {
	return &CheckoutService{handoffs: h, deps: deps, now: time.Now, views: map[string]*PaymentView{}}
}

func (c *CheckoutService) Handoff(h domain.Handoff) string {
	return c.handoffs.Put(h)
}

// Open mounts the payment view for token. The checkout document is served
// once: opening a token again (refresh, back/forward) tears the view down and
// fails closed, as does a token with no state. Neither makes a network call.
func (c *CheckoutService) Open(ctx context.Context, token, referer string) (*PaymentView, domain.ScriptLoader, error) {
	c.mu.Lock()
	if v, ok := c.views[token]; ok {
		delete(c.views, token)
		c.mu.Unlock()
		v.Teardown(ctx)
		log.Warn().Str("token", token).Msg("payment view reopened; checkout state discarded")
		return nil, nil, domain.HandoffFailure("Your checkout session has expired", v.returnTo(), domain.ErrHandoffMissing)
	}
	h, found := c.handoffs.Take(token)
	if !found {
		c.mu.Unlock()
		if referer == "" {
			referer = "/"
		}
		log.Warn().Str("token", token).Msg("payment view entered without checkout state")
		return nil, nil, domain.HandoffFailure("Your checkout session has expired", referer, domain.ErrHandoffMissing)
	}
	v := NewPaymentView(token, &h, c.deps)
	v.opened = c.now()
	c.views[token] = v
	c.mu.Unlock()

	loader, err := v.Start(ctx)
	if err != nil {
		return v, nil, err
	}
	return v, loader, nil
}

func (c *CheckoutService) Complete(token, reservationID string) error {
	c.mu.Lock()
	v, ok := c.views[token]
	c.mu.Unlock()
	if !ok {
		return domain.Validation("No payment in progress", domain.ErrHandoffMissing)
	}
	return v.Complete(reservationID)
}

// Close tears the view down and forgets it; the token cannot be reopened.
func (c *CheckoutService) Close(ctx context.Context, token string) bool {
	c.mu.Lock()
	v, ok := c.views[token]
	delete(c.views, token)
	c.mu.Unlock()
	if !ok {
		return false
	}
	v.Teardown(ctx)
	return true
}

// Sweep drops expired handoffs and tears down payment views opened longer
// than the slot TTL ago. It returns the number of views evicted.
func (c *CheckoutService) Sweep(ctx context.Context) int {
	c.handoffs.Sweep()
	cutoff := c.now().Add(-c.viewTTL())
	c.mu.Lock()
	var stale []*PaymentView
	for token, v := range c.views {
		if v.opened.Before(cutoff) {
			stale = append(stale, v)
			delete(c.views, token)
		}
	}
	c.mu.Unlock()
	for _, v := range stale {
		v.Teardown(ctx)
	}
	return len(stale)
}

func (c *CheckoutService) viewTTL() time.Duration {
	if c.deps.SlotTTL > 0 {
		return c.deps.SlotTTL
	}
	return c.handoffs.ttl
}
