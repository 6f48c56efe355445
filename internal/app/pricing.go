package app

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/domain"
)

const currencySymbol = "₺"

// PriceLabel is everything the room card needs to render its price.
type PriceLabel struct {
	RoomID          domain.ID `json:"roomId"`
	Amount          float64   `json:"amount"`
	Text            string    `json:"text"`
	Original        *float64  `json:"original,omitempty"`
	StruckText      string    `json:"struckText,omitempty"`
	DiscountApplied bool      `json:"discountApplied"`
	Nights          int       `json:"nights"`
	Total           float64   `json:"total"`
	TotalText       string    `json:"totalText,omitempty"`
	NightsText      string    `json:"nightsText,omitempty"`
}

// PricingEngine holds discount overlays keyed by room id.
type PricingEngine struct {
	discounts domain.DiscountClient

	mu       sync.Mutex
	overlays map[domain.ID]domain.DiscountState
}

func NewPricingEngine(d domain.DiscountClient) *PricingEngine {
	return &PricingEngine{discounts: d, overlays: map[domain.ID]domain.DiscountState{}}
}

// PreviewDiscount asks the discount service for the room's discounted amount
// and records it. On failure the overlay is left as it was.
func (p *PricingEngine) PreviewDiscount(ctx context.Context, room domain.Room, userID string) (float64, error) {
	amount, err := p.discounts.PreviewDiscount(ctx, userID, room.BasePrice)
	if err != nil {
		log.Warn().Err(err).Str("room", room.RoomID.String()).Str("user", userID).Msg("discount preview failed")
		return 0, domain.Upstream("Could not calculate your discount", err)
	}
	if amount <= 0 {
		err := fmt.Errorf("discount service returned %v", amount)
		log.Warn().Err(err).Str("room", room.RoomID.String()).Msg("discount preview rejected")
		return 0, domain.Upstream("Could not calculate your discount", err)
	}

	p.mu.Lock()
	p.overlays[room.RoomID] = domain.DiscountState{DiscountedPrice: &amount, IsDiscountApplied: true}
	p.mu.Unlock()
	return amount, nil
}

func (p *PricingEngine) RemoveDiscount(roomID domain.ID) {
	p.mu.Lock()
	delete(p.overlays, roomID)
	p.mu.Unlock()
}

// Overlay returns a copy of the room's discount state.
func (p *PricingEngine) Overlay(roomID domain.ID) domain.DiscountState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.overlays[roomID]
	if !ok || st.DiscountedPrice == nil {
		return domain.DiscountState{}
	}
	v := *st.DiscountedPrice
	return domain.DiscountState{DiscountedPrice: &v, IsDiscountApplied: st.IsDiscountApplied}
}

// Reset drops every overlay; rooms from an earlier fetch no longer exist.
func (p *PricingEngine) Reset() {
	p.mu.Lock()
	p.overlays = map[domain.ID]domain.DiscountState{}
	p.mu.Unlock()
}

// NightlyRate is the per-night price the guest would pay right now.
func (p *PricingEngine) NightlyRate(room domain.Room) float64 {
	if st := p.Overlay(room.RoomID); st.IsDiscountApplied {
		return *st.DiscountedPrice
	}
	return room.BasePrice
}

// DisplayPrice keeps the per-night rate as the headline and reports the stay
// total next to the "for N nights" label.
func (p *PricingEngine) DisplayPrice(room domain.Room, nights int) PriceLabel {
	lbl := PriceLabel{RoomID: room.RoomID, Amount: room.BasePrice, Nights: nights}
	if st := p.Overlay(room.RoomID); st.IsDiscountApplied {
		base := room.BasePrice
		lbl.Amount = *st.DiscountedPrice
		lbl.Original = &base
		lbl.StruckText = FormatPrice(base)
		lbl.DiscountApplied = true
	}
	lbl.Text = FormatPrice(lbl.Amount)
	if nights > 0 {
		lbl.Total = lbl.Amount * float64(nights)
		lbl.TotalText = FormatPrice(lbl.Total)
		lbl.NightsText = nightsLabel(nights)
	}
	return lbl
}

func FormatPrice(v float64) string {
	return currencySymbol + strconv.FormatFloat(v, 'f', -1, 64)
}

func nightsLabel(n int) string {
	if n == 1 {
		return "for 1 night"
	}
	return fmt.Sprintf("for %d nights", n)
}
