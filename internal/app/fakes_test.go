package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"hotel_storefront/internal/domain"
)

// ---- fakes ----

type fakeInventory struct {
	mu    sync.Mutex
	calls int
	fn    func(ctx context.Context, call int, hotelID string) (domain.Hotel, error)
}

func (f *fakeInventory) GetHotelDetails(ctx context.Context, hotelID string, p domain.SearchParams) (domain.Hotel, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return f.fn(ctx, n, hotelID)
}

func staticInventory(h domain.Hotel) *fakeInventory {
	return &fakeInventory{fn: func(context.Context, int, string) (domain.Hotel, error) { return h, nil }}
}

type fakeLoyalty struct {
	li  domain.LoyaltyInfo
	err error
}

func (f *fakeLoyalty) GetLoyalty(ctx context.Context, userID string) (domain.LoyaltyInfo, error) {
	return f.li, f.err
}

type fakeDiscounts struct {
	amount float64
	err    error
	calls  int32
}

func (f *fakeDiscounts) PreviewDiscount(ctx context.Context, userID string, orderAmount float64) (float64, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.amount, f.err
}

type fakePayments struct {
	calls int32
	last  domain.PaymentRequest
	sess  domain.PaymentSession
	err   error
	delay time.Duration
}

func (f *fakePayments) CreatePaymentSession(ctx context.Context, req domain.PaymentRequest) (domain.PaymentSession, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.last = req
	return f.sess, f.err
}

func (f *fakePayments) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

type fakeSlots struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (s *fakeSlots) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *fakeSlots) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.keys, key)
	s.mu.Unlock()
	return nil
}

func (s *fakeSlots) Held() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

type fakeLoader struct {
	content string
	loads   int32
	loaded  atomic.Bool
}

func (l *fakeLoader) Load(ctx context.Context) error {
	if l.loaded.Load() {
		return errors.New("already loaded")
	}
	atomic.AddInt32(&l.loads, 1)
	l.loaded.Store(true)
	return nil
}
func (l *fakeLoader) IsLoaded() bool { return l.loaded.Load() }
func (l *fakeLoader) Unload()        { l.loaded.Store(false) }

type loaderRecorder struct {
	mu      sync.Mutex
	loaders []*fakeLoader
}

func (r *loaderRecorder) factory(containerID, content string) domain.ScriptLoader {
	l := &fakeLoader{content: content}
	r.mu.Lock()
	r.loaders = append(r.loaders, l)
	r.mu.Unlock()
	return l
}

type fakeLedger struct {
	mu       sync.Mutex
	sessions []domain.CheckoutRecord
	failures []string
}

func (l *fakeLedger) RecordSession(ctx context.Context, rec domain.CheckoutRecord) error {
	l.mu.Lock()
	l.sessions = append(l.sessions, rec)
	l.mu.Unlock()
	return nil
}

func (l *fakeLedger) LogFailure(ctx context.Context, stage, ref string, status int, reason string) error {
	l.mu.Lock()
	l.failures = append(l.failures, stage+":"+ref)
	l.mu.Unlock()
	return nil
}

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func stay(in, out string) domain.SearchParams {
	return domain.SearchParams{DateRange: domain.DateRange{CheckIn: day(in), CheckOut: day(out)}, Adults: 2}
}

func room(id, typ string, price float64, available bool) domain.Room {
	r := domain.Room{RoomID: domain.ID(id), Title: "Room " + id, BasePrice: price, IsAvailable: available, Capacity: 2}
	if typ != "" {
		r.RoomTypeName = ptr(typ)
	}
	return r
}

func sampleHotel() domain.Hotel {
	return domain.Hotel{
		ID:   "7",
		Name: "Sea View",
		Rooms: []domain.Room{
			room("101", "Deluxe", 1500, true),
			room("102", "Deluxe", 1400, true),
			room("201", "Suite", 3000, false),
			room("301", "", 900, true),
		},
	}
}
