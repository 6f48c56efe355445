package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/domain"
)

// RoomCard is one bookable room type on the detail page.
type RoomCard struct {
	RoomType string      `json:"roomType"`
	Room     domain.Room `json:"room"`
	Price    PriceLabel  `json:"price"`
}

// Page is the rendered state of a detail view.
type Page struct {
	ViewID            string              `json:"viewId"`
	HotelID           string              `json:"hotelId"`
	CheckIn           string              `json:"checkIn"`
	CheckOut          string              `json:"checkOut"`
	Adults            int                 `json:"adults"`
	Nights            int                 `json:"nights"`
	Hotel             domain.Hotel        `json:"hotel"`
	Rooms             []RoomCard          `json:"rooms"`
	Loyalty           *domain.LoyaltyInfo `json:"loyalty,omitempty"`
	DiscountAvailable bool                `json:"discountAvailable"`
	CanonicalURL      string              `json:"canonicalUrl"`
}

// DetailView is the server-side controller behind one open detail page.
type DetailView struct {
	id      string
	fetcher *AvailabilityFetcher
	pricing *PricingEngine

	mu       sync.Mutex
	lastSeen time.Time
}

func (v *DetailView) touch(now time.Time) {
	v.mu.Lock()
	v.lastSeen = now
	v.mu.Unlock()
}

func (v *DetailView) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

type StorefrontDeps struct {
	Inventory domain.InventoryClient
	Loyalty   LoyaltyReader
	Discounts domain.DiscountClient
	Checkout  *CheckoutService
	Ledger    domain.CheckoutLedger
	LoginURL  string
	ViewTTL   time.Duration
}

type Storefront struct {
	deps StorefrontDeps
	now  func() time.Time

	mu    sync.Mutex
	views map[string]*DetailView
}

func NewStorefront(d StorefrontDeps) *Storefront {
	return &Storefront{deps: d, now: time.Now, views: map[string]*DetailView{}}
}

// view returns the detail view for id, creating a fresh one when id is
// empty or unknown.
func (s *Storefront) view(id string, create bool) (*DetailView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.views[id]; ok {
		v.touch(s.now())
		return v, true
	}
	if !create {
		return nil, false
	}
	v := &DetailView{
		id:      uuid.NewString(),
		fetcher: NewAvailabilityFetcher(s.deps.Inventory, s.deps.Loyalty),
		pricing: NewPricingEngine(s.deps.Discounts),
	}
	v.touch(s.now())
	s.views[v.id] = v
	return v, true
}

// Search mounts a detail view or re-searches an existing one.
func (s *Storefront) Search(ctx context.Context, viewID, hotelID string, p domain.SearchParams, user *domain.User) (Page, error) {
	v, _ := s.view(viewID, true)
	a, err := v.fetcher.Fetch(ctx, hotelID, p, user)
	if err != nil {
		if ue, ok := domain.AsUserError(err); ok && ue.Kind == domain.KindUpstream {
			s.logFailure(ctx, "HotelDetails", hotelID, err)
		}
		return Page{ViewID: v.id}, err
	}
	v.pricing.Reset()
	return s.render(v, a), nil
}

// Page renders the view's last committed search.
func (s *Storefront) Page(viewID string) (Page, error) {
	v, ok := s.view(viewID, false)
	if !ok {
		return Page{}, expiredView()
	}
	a, _, ok := v.fetcher.Current()
	if !ok {
		return Page{}, domain.Validation("No search results to show", domain.ErrNotFound)
	}
	return s.render(v, a), nil
}

func (s *Storefront) PreviewDiscount(ctx context.Context, viewID string, roomID domain.ID, user *domain.User) (PriceLabel, error) {
	if user == nil || user.ID == "" {
		return PriceLabel{}, &domain.UserError{Kind: domain.KindValidation, Message: "Please sign in to see your discount", Redirect: s.deps.LoginURL, Err: domain.ErrUnauthenticated}
	}
	v, a, err := s.current(viewID)
	if err != nil {
		return PriceLabel{}, err
	}
	if a.Loyalty == nil {
		return PriceLabel{}, domain.Validation("Loyalty discount is not available", domain.ErrDiscountUnavailable)
	}
	room, ok := a.Rooms.Lookup(roomID)
	if !ok {
		return PriceLabel{}, domain.Validation("Room not found", domain.ErrRoomNotFound)
	}
	if _, err := v.pricing.PreviewDiscount(ctx, room, user.ID); err != nil {
		s.logFailure(ctx, "Discount/preview", roomID.String(), err)
		return PriceLabel{}, err
	}
	return v.pricing.DisplayPrice(room, a.Nights), nil
}

func (s *Storefront) RemoveDiscount(viewID string, roomID domain.ID) (PriceLabel, error) {
	v, a, err := s.current(viewID)
	if err != nil {
		return PriceLabel{}, err
	}
	room, ok := a.Rooms.Lookup(roomID)
	if !ok {
		return PriceLabel{}, domain.Validation("Room not found", domain.ErrRoomNotFound)
	}
	v.pricing.RemoveDiscount(roomID)
	return v.pricing.DisplayPrice(room, a.Nights), nil
}

// Checkout validates the selection and hands it to a new payment view. It
// returns the payment view token.
func (s *Storefront) Checkout(viewID string, roomID domain.ID, user *domain.User) (string, error) {
	req := IntentRequest{User: user, LoginURL: s.deps.LoginURL, RoomID: roomID}
	returnTo := ""
	if v, ok := s.view(viewID, false); ok {
		if a, _, ok := v.fetcher.Current(); ok {
			req.HotelID, req.Rooms, req.Range, req.Rates = a.HotelID, a.Rooms, a.Params.DateRange, v.pricing
			returnTo = canonicalURL(a.HotelID, a.Params)
		}
	}

	intent, details, err := BuildIntent(req)
	if err != nil {
		return "", err
	}
	token := s.deps.Checkout.Handoff(domain.Handoff{PaymentData: intent, RoomDetails: details, ReturnTo: returnTo})
	log.Info().Str("view", viewID).Str("room", intent.RoomID).Float64("total", intent.TotalPrice).Msg("checkout handed off")
	return token, nil
}

// Close forgets a detail view and cancels its in-flight search.
func (s *Storefront) Close(viewID string) bool {
	s.mu.Lock()
	v, ok := s.views[viewID]
	delete(s.views, viewID)
	s.mu.Unlock()
	if ok {
		v.fetcher.Close()
	}
	return ok
}

// Sweep evicts detail views idle for longer than the configured TTL, then
// the checkout side's expired handoffs and payment views.
func (s *Storefront) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.deps.ViewTTL)
	s.mu.Lock()
	var stale []*DetailView
	for id, v := range s.views {
		if v.idleSince().Before(cutoff) {
			stale = append(stale, v)
			delete(s.views, id)
		}
	}
	s.mu.Unlock()
	for _, v := range stale {
		v.fetcher.Close()
	}
	if s.deps.Checkout != nil {
		if n := s.deps.Checkout.Sweep(ctx); n > 0 {
			log.Debug().Int("payments", n).Msg("evicted idle payment views")
		}
	}
	return len(stale)
}

// Run sweeps on every tick until ctx is done.
func (s *Storefront) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(ctx); n > 0 {
				log.Debug().Int("views", n).Msg("evicted idle detail views")
			}
		}
	}
}

func (s *Storefront) current(viewID string) (*DetailView, Availability, error) {
	v, ok := s.view(viewID, false)
	if !ok {
		return nil, Availability{}, expiredView()
	}
	a, _, ok := v.fetcher.Current()
	if !ok {
		return nil, Availability{}, domain.Validation("Room not found", domain.ErrRoomNotFound)
	}
	return v, a, nil
}

func (s *Storefront) render(v *DetailView, a Availability) Page {
	p := Page{
		ViewID:            v.id,
		HotelID:           a.HotelID,
		CheckIn:           a.Params.CheckIn.Format(domain.DateLayout),
		CheckOut:          a.Params.CheckOut.Format(domain.DateLayout),
		Adults:            a.Params.Adults,
		Nights:            a.Nights,
		Hotel:             a.Hotel,
		Loyalty:           a.Loyalty,
		DiscountAvailable: a.Loyalty != nil,
		CanonicalURL:      canonicalURL(a.HotelID, a.Params),
		Rooms:             make([]RoomCard, 0, a.Rooms.Len()),
	}
	p.Hotel.Rooms = nil
	for _, t := range a.Rooms.Types() {
		r, _ := a.Rooms.Get(t)
		p.Rooms = append(p.Rooms, RoomCard{RoomType: t, Room: r, Price: v.pricing.DisplayPrice(r, a.Nights)})
	}
	return p
}

func (s *Storefront) logFailure(ctx context.Context, stage, ref string, err error) {
	if s.deps.Ledger == nil || errors.Is(err, context.Canceled) {
		return
	}
	if lerr := s.deps.Ledger.LogFailure(ctx, stage, ref, domain.StatusOf(err), err.Error()); lerr != nil {
		log.Error().Err(lerr).Str("stage", stage).Msg("ledger failure log failed")
	}
}

func canonicalURL(hotelID string, p domain.SearchParams) string {
	return fmt.Sprintf("/v1/hotels/%s/availability?%s", url.PathEscape(hotelID), p.Query().Encode())
}

func expiredView() error {
	return domain.Validation("This page has expired, please search again", domain.ErrNotFound)
}
