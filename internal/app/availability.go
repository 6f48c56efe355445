package app

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotel_storefront/internal/adapters/observability"
	"hotel_storefront/internal/domain"
)

const defaultAdults = 2

type FetchState string

const (
	StateIdle    FetchState = "idle"
	StateLoading FetchState = "loading"
	StateReady   FetchState = "ready"
	StateFailed  FetchState = "failed"
)

// Availability is the outcome of one successful fetch cycle.
type Availability struct {
	HotelID string
	Params  domain.SearchParams
	Nights  int
	Hotel   domain.Hotel
	Rooms   domain.RoomTypeGroup
	Loyalty *domain.LoyaltyInfo
}

type LoyaltyReader interface {
	GetLoyalty(ctx context.Context, userID string) (domain.LoyaltyInfo, error)
}

// DefaultSearch is today to tomorrow for two adults.
func DefaultSearch(now time.Time) domain.SearchParams {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return domain.SearchParams{
		DateRange: domain.DateRange{CheckIn: today, CheckOut: today.AddDate(0, 0, 1)},
		Adults:    defaultAdults,
	}
}

// ParseSearch reads the page's URL parameters. With no dates at all the
// default range applies; partial or inverted ranges are rejected.
func ParseSearch(checkIn, checkOut, adults string, now time.Time) (domain.SearchParams, error) {
	p := DefaultSearch(now)
	if strings.TrimSpace(checkIn) != "" || strings.TrimSpace(checkOut) != "" {
		in, ok1 := ParseDate(checkIn)
		out, ok2 := ParseDate(checkOut)
		if !ok1 || !ok2 || NightsBetween(in, out) == 0 {
			return domain.SearchParams{}, domain.Validation("Please choose a valid date range", domain.ErrInvalidDateRange)
		}
		p.CheckIn, p.CheckOut = in, out
	}
	if s := strings.TrimSpace(adults); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return domain.SearchParams{}, domain.Validation("Please choose at least one guest", err)
		}
		p.Adults = n
	}
	return p, nil
}

// AvailabilityFetcher runs the idle -> loading -> ready|failed cycle for one
// detail view. Only the most recent search may commit its result.
type AvailabilityFetcher struct {
	inventory domain.InventoryClient
	loyalty   LoyaltyReader

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	state   FetchState
	current *Availability
}

func NewAvailabilityFetcher(inv domain.InventoryClient, loyalty LoyaltyReader) *AvailabilityFetcher {
	return &AvailabilityFetcher{inventory: inv, loyalty: loyalty, state: StateIdle}
}

// Fetch loads hotel rooms and, for a signed-in user, loyalty info in parallel.
// A loyalty failure only disables the discount. Starting a new Fetch cancels
// the previous one and a response that lost the race returns ErrSuperseded.
func (f *AvailabilityFetcher) Fetch(ctx context.Context, hotelID string, p domain.SearchParams, user *domain.User) (Availability, error) {
	f.mu.Lock()
	f.gen++
	gen := f.gen
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.state = StateLoading
	f.mu.Unlock()
	defer cancel()

	var (
		hotel   domain.Hotel
		loyalty *domain.LoyaltyInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := f.inventory.GetHotelDetails(gctx, hotelID, p)
		if err != nil {
			return err
		}
		hotel = h
		return nil
	})
	if user != nil && user.ID != "" && f.loyalty != nil {
		g.Go(func() error {
			li, err := f.loyalty.GetLoyalty(gctx, user.ID)
			if err != nil {
				log.Warn().Err(err).Str("user", user.ID).Msg("loyalty fetch failed; discount disabled")
				return nil
			}
			loyalty = &li
			return nil
		})
	}
	err := g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		observability.ObserveStale("availability")
		log.Debug().Str("hotel", hotelID).Uint64("gen", gen).Msg("stale availability response dropped")
		return Availability{}, domain.ErrSuperseded
	}
	f.cancel = nil

	if err != nil {
		f.state = StateFailed
		f.current = nil
		if errors.Is(err, context.Canceled) {
			return Availability{}, err
		}
		log.Error().Err(err).Str("hotel", hotelID).Msg("availability fetch failed")
		if errors.Is(err, domain.ErrNotFound) {
			return Availability{}, domain.Upstream("Hotel not found", err)
		}
		return Availability{}, domain.Upstream("Could not load room availability", err)
	}

	a := Availability{
		HotelID: hotelID,
		Params:  p,
		Nights:  NightsBetween(p.CheckIn, p.CheckOut),
		Hotel:   hotel,
		Rooms:   GroupRooms(hotel.Rooms),
		Loyalty: loyalty,
	}
	f.state = StateReady
	f.current = &a
	return a, nil
}

// Current returns the committed result, if any.
func (f *AvailabilityFetcher) Current() (Availability, FetchState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return Availability{}, f.state, false
	}
	return *f.current, f.state, true
}

// Close cancels the in-flight request and discards whatever it returns.
func (f *AvailabilityFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
