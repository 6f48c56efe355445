package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/adapters/observability"
	"hotel_storefront/internal/domain"
)

const CheckoutContainerID = "checkout-form"

type PaymentState string

const (
	PaymentPending PaymentState = "pending"
	PaymentSuccess PaymentState = "success"
	PaymentError   PaymentState = "error"
)

type PaymentDeps struct {
	Payments  domain.PaymentClient
	Slots     domain.SlotStore
	Ledger    domain.CheckoutLedger
	NewLoader domain.LoaderFactory
	Defaults  domain.ShippingAddress
	SlotTTL   time.Duration
}

// PaymentView bootstraps one third-party checkout widget. The session is
// requested at most once per view, no matter how often Start runs.
type PaymentView struct {
	token   string
	handoff *domain.Handoff
	deps    PaymentDeps
	opened  time.Time

	mu             sync.Mutex
	state          PaymentState
	sessionCreated bool
	session        *domain.PaymentSession
	loader         domain.ScriptLoader
	slotKey        string
	err            error
}

func NewPaymentView(token string, h *domain.Handoff, deps PaymentDeps) *PaymentView {
	return &PaymentView{token: token, handoff: h, deps: deps, state: PaymentPending}
}

func (v *PaymentView) State() PaymentState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *PaymentView) Session() (domain.PaymentSession, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil {
		return domain.PaymentSession{}, false
	}
	return *v.session, true
}

func (v *PaymentView) RoomDetails() (domain.RoomDetails, bool) {
	if v.handoff == nil {
		return domain.RoomDetails{}, false
	}
	return v.handoff.RoomDetails, true
}

// Start validates the handed-off intent, creates the payment session and
// mounts its checkout fragment. The state stays pending afterwards: the widget
// owns the flow until Complete is called.
func (v *PaymentView) Start(ctx context.Context) (domain.ScriptLoader, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.sessionCreated {
		if v.err != nil {
			return nil, v.err
		}
		if v.loader != nil && v.loader.IsLoaded() {
			return v.loader, nil
		}
		return nil, domain.HandoffFailure("This checkout was already closed", v.returnTo(), domain.ErrSessionStarted)
	}
	v.sessionCreated = true

	loader, err := v.start(ctx)
	if err != nil {
		v.state = PaymentError
		v.err = err
		return nil, err
	}
	return loader, nil
}

func (v *PaymentView) start(ctx context.Context) (domain.ScriptLoader, error) {
	if v.handoff == nil {
		log.Warn().Str("token", v.token).Msg("payment view opened without checkout state")
		return nil, domain.HandoffFailure("Your checkout session has expired", "/", domain.ErrHandoffMissing)
	}
	req, err := v.paymentRequest()
	if err != nil {
		log.Warn().Err(err).Str("token", v.token).Msg("payment data invalid")
		return nil, domain.HandoffFailure("Payment details are missing or invalid", v.returnTo(), err)
	}

	key := "checkout:widget:" + v.token
	if v.deps.Slots != nil {
		ok, err := v.deps.Slots.Claim(ctx, key, v.deps.SlotTTL)
		if err != nil {
			log.Error().Err(err).Str("token", v.token).Msg("claim checkout slot failed")
			return nil, domain.Upstream("Could not start payment", err)
		}
		if !ok {
			log.Warn().Str("token", v.token).Msg("checkout slot already claimed")
			return nil, domain.Validation("Checkout is already open in another window", domain.ErrSlotTaken)
		}
	}

	sess, err := v.deps.Payments.CreatePaymentSession(ctx, req)
	if err == nil && sess.CheckoutFormContent == "" {
		err = errors.New("payment session without checkout form")
	}
	if err != nil {
		v.release(ctx, key)
		observability.ObservePaymentSession("failed")
		log.Error().Err(err).Str("token", v.token).Str("hotel", req.HotelID).Msg("create payment session failed")
		v.logFailure(ctx, "payments/create", req.HotelID, err)
		return nil, domain.Upstream("Could not start payment", err)
	}

	loader := v.deps.NewLoader(CheckoutContainerID, sess.CheckoutFormContent)
	if err := loader.Load(ctx); err != nil {
		v.release(ctx, key)
		observability.ObservePaymentSession("mount_failed")
		log.Error().Err(err).Str("reservation", sess.ReservationID).Msg("mount checkout widget failed")
		return nil, domain.Upstream("Could not display the payment form", err)
	}

	v.session = &sess
	v.loader = loader
	v.slotKey = key
	observability.ObservePaymentSession("created")
	observability.WidgetMounted()

	if v.deps.Ledger != nil {
		rec := domain.CheckoutRecord{
			ReservationID: sess.ReservationID,
			Token:         v.token,
			UserID:        req.UserID,
			HotelID:       req.HotelID,
			RoomID:        req.RoomID,
			CheckIn:       req.CheckIn,
			CheckOut:      req.CheckOut,
			TotalPrice:    req.TotalPrice,
		}
		if err := v.deps.Ledger.RecordSession(ctx, rec); err != nil {
			log.Error().Err(err).Str("reservation", sess.ReservationID).Msg("ledger write failed")
		}
	}
	log.Info().Str("reservation", sess.ReservationID).Str("hotel", req.HotelID).Msg("checkout widget mounted")
	return loader, nil
}

// paymentRequest fills shipping fields the booking page never collects.
func (v *PaymentView) paymentRequest() (domain.PaymentRequest, error) {
	req := domain.PaymentRequest{BookingIntent: v.handoff.PaymentData, ShippingAddress: v.deps.Defaults}
	log.Warn().Str("token", v.token).Msg("shipping address filled from configured defaults")
	if err := validate.Struct(req); err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("payment request: %w", err)
	}
	return req, nil
}

// Complete is called once the third-party form reports success.
func (v *PaymentView) Complete(reservationID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session == nil || v.state != PaymentPending {
		return domain.Validation("No payment in progress", domain.ErrHandoffMissing)
	}
	if v.session.ReservationID != reservationID {
		return domain.Validation("Reservation does not match this checkout", fmt.Errorf("reservation %q", reservationID))
	}
	v.state = PaymentSuccess
	observability.ObservePaymentSession("completed")
	return nil
}

// Teardown removes the mounted fragment and its session key. Safe to repeat.
func (v *PaymentView) Teardown(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loader != nil {
		v.loader.Unload()
		v.loader = nil
		observability.WidgetUnmounted()
	}
	if v.slotKey != "" {
		v.release(ctx, v.slotKey)
		v.slotKey = ""
	}
}

func (v *PaymentView) release(ctx context.Context, key string) {
	if v.deps.Slots == nil {
		return
	}
	if err := v.deps.Slots.Release(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("release checkout slot failed")
	}
}

func (v *PaymentView) logFailure(ctx context.Context, stage, ref string, err error) {
	if v.deps.Ledger == nil {
		return
	}
	if lerr := v.deps.Ledger.LogFailure(ctx, stage, ref, domain.StatusOf(err), err.Error()); lerr != nil {
		log.Error().Err(lerr).Msg("ledger failure log failed")
	}
}

func (v *PaymentView) returnTo() string {
	if v.handoff != nil && v.handoff.ReturnTo != "" {
		return v.handoff.ReturnTo
	}
	return "/"
}
