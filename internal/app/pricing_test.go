package app_test

import (
	"context"
	"errors"
	"testing"

	"hotel_storefront/internal/app"
	"hotel_storefront/internal/domain"
)

func TestPricing_DiscountRoundTrip(t *testing.T) {
	disc := &fakeDiscounts{amount: 1200}
	p := app.NewPricingEngine(disc)
	deluxe := room("101", "Deluxe", 1500, true)
	suite := room("201", "Suite", 3000, true)
	nights := app.Nights("2024-06-01", "2024-06-04")
	if nights != 3 {
		t.Fatalf("nights = %d", nights)
	}

	before := p.DisplayPrice(deluxe, nights)
	if before.Text != "₺1500" || before.DiscountApplied || before.StruckText != "" {
		t.Fatalf("unexpected base label: %+v", before)
	}
	if before.NightsText != "for 3 nights" || before.Total != 4500 {
		t.Fatalf("unexpected stay label: %+v", before)
	}
	suiteBefore := p.DisplayPrice(suite, nights)

	got, err := p.PreviewDiscount(context.Background(), deluxe, "u1")
	if err != nil || got != 1200 {
		t.Fatalf("PreviewDiscount = %v, %v", got, err)
	}
	during := p.DisplayPrice(deluxe, nights)
	if during.Text != "₺1200" || during.StruckText != "₺1500" || !during.DiscountApplied {
		t.Fatalf("unexpected discounted label: %+v", during)
	}
	if during.Total != 3600 {
		t.Fatalf("discounted total = %v", during.Total)
	}
	if p.DisplayPrice(suite, nights) != suiteBefore {
		t.Fatalf("discount on one room changed another room's price")
	}

	p.RemoveDiscount(deluxe.RoomID)
	after := p.DisplayPrice(deluxe, nights)
	if after != before {
		t.Fatalf("remove did not restore price:\n got %+v\nwant %+v", after, before)
	}
	if p.DisplayPrice(suite, nights) != suiteBefore {
		t.Fatalf("remove on one room changed another room's price")
	}
}

func TestPricing_FailedPreviewLeavesOverlay(t *testing.T) {
	disc := &fakeDiscounts{amount: 1200}
	p := app.NewPricingEngine(disc)
	r := room("101", "Deluxe", 1500, true)

	if _, err := p.PreviewDiscount(context.Background(), r, "u1"); err != nil {
		t.Fatalf("first preview: %v", err)
	}
	disc.err = errors.New("boom")
	_, err := p.PreviewDiscount(context.Background(), r, "u1")
	ue, ok := domain.AsUserError(err)
	if !ok || ue.Kind != domain.KindUpstream {
		t.Fatalf("expected upstream user error, got %v", err)
	}
	if lbl := p.DisplayPrice(r, 1); lbl.Amount != 1200 || !lbl.DiscountApplied {
		t.Fatalf("failed preview must not touch the overlay: %+v", lbl)
	}

	fresh := room("102", "Deluxe", 1500, true)
	if _, err := p.PreviewDiscount(context.Background(), fresh, "u1"); err == nil {
		t.Fatalf("expected error")
	}
	if st := p.Overlay(fresh.RoomID); st.IsDiscountApplied || st.DiscountedPrice != nil {
		t.Fatalf("failed preview created an overlay: %+v", st)
	}
}

func TestPricing_ReapplyIsIdempotent(t *testing.T) {
	disc := &fakeDiscounts{amount: 1200}
	p := app.NewPricingEngine(disc)
	r := room("101", "Deluxe", 1500, true)

	for i := 0; i < 3; i++ {
		if _, err := p.PreviewDiscount(context.Background(), r, "u1"); err != nil {
			t.Fatalf("preview %d: %v", i, err)
		}
	}
	if lbl := p.DisplayPrice(r, 0); lbl.Text != "₺1200" || lbl.NightsText != "" || lbl.Total != 0 {
		t.Fatalf("unexpected label: %+v", lbl)
	}
	if disc.calls != 3 {
		t.Fatalf("each apply recomputes the preview, got %d calls", disc.calls)
	}
	p.RemoveDiscount(r.RoomID)
	if lbl := p.DisplayPrice(r, 0); lbl.Text != "₺1500" {
		t.Fatalf("unexpected label after remove: %+v", lbl)
	}
}
