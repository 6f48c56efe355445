package app_test

import (
	"errors"
	"testing"

	"hotel_storefront/internal/app"
	"hotel_storefront/internal/domain"
)

type fixedRate float64

func (f fixedRate) NightlyRate(domain.Room) float64 { return float64(f) }

func intentRequest() app.IntentRequest {
	return app.IntentRequest{
		User:     guest,
		LoginURL: "/login",
		HotelID:  "7",
		RoomID:   "101",
		Rooms:    app.GroupRooms(sampleHotel().Rooms),
		Range:    stay("2024-06-01", "2024-06-04").DateRange,
	}
}

func TestBuildIntent_IdentityCheckedFirst(t *testing.T) {
	for _, roomID := range []domain.ID{"101", "does-not-exist"} {
		req := intentRequest()
		req.User = nil
		req.RoomID = roomID
		req.Rooms = domain.RoomTypeGroup{}

		_, _, err := app.BuildIntent(req)
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("room %s: expected ErrUnauthenticated, got %v", roomID, err)
		}
		ue, _ := domain.AsUserError(err)
		if ue.Redirect != "/login" {
			t.Fatalf("expected login redirect, got %q", ue.Redirect)
		}
	}
}

func TestBuildIntent_RoomThenDates(t *testing.T) {
	req := intentRequest()
	req.RoomID = "999"
	req.Range = domain.DateRange{}
	if _, _, err := app.BuildIntent(req); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound before the date check, got %v", err)
	}

	req = intentRequest()
	req.Range = stay("2024-06-04", "2024-06-01").DateRange
	if _, _, err := app.BuildIntent(req); !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestBuildIntent_UsesCurrentRate(t *testing.T) {
	req := intentRequest()
	intent, details, err := app.BuildIntent(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := domain.BookingIntent{
		UserID: "u1", RoomID: "101", HotelID: "7",
		CheckIn: "2024-06-01", CheckOut: "2024-06-04",
		TotalPrice: 4500, Email: "guest@example.com",
	}
	if intent != want {
		t.Fatalf("unexpected intent:\n got %+v\nwant %+v", intent, want)
	}
	if details != (domain.RoomDetails{RoomNumber: "Room 101", RoomType: "Deluxe", Nights: 3, BasePrice: 1500}) {
		t.Fatalf("unexpected details: %+v", details)
	}

	req.Rates = fixedRate(1200)
	intent, _, err = app.BuildIntent(req)
	if err != nil || intent.TotalPrice != 3600 {
		t.Fatalf("discounted intent: %+v %v", intent, err)
	}
}

func TestBuildIntent_RejectsIncompleteIntent(t *testing.T) {
	req := intentRequest()
	req.User = &domain.User{ID: "u1"} // no email
	_, _, err := app.BuildIntent(req)
	if ue, ok := domain.AsUserError(err); !ok || ue.Kind != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	req = intentRequest()
	req.Rates = fixedRate(0)
	if _, _, err := app.BuildIntent(req); err == nil {
		t.Fatalf("zero total must be rejected")
	}
}
