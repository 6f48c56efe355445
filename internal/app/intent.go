package app

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/domain"
)

var validate = validator.New()

type RateSource interface {
	NightlyRate(room domain.Room) float64
}

type IntentRequest struct {
	User     *domain.User
	LoginURL string
	HotelID  string
	RoomID   domain.ID
	Rooms    domain.RoomTypeGroup
	Range    domain.DateRange
	Rates    RateSource
}

// BuildIntent checks identity, then the room, then the dates, in that order,
// and prices the stay at the room's current nightly rate.
func BuildIntent(req IntentRequest) (domain.BookingIntent, domain.RoomDetails, error) {
	if req.User == nil || req.User.ID == "" {
		return domain.BookingIntent{}, domain.RoomDetails{}, &domain.UserError{
			Kind:     domain.KindValidation,
			Message:  "Please sign in to book a room",
			Redirect: req.LoginURL,
			Err:      domain.ErrUnauthenticated,
		}
	}

	room, ok := req.Rooms.Lookup(req.RoomID)
	if !ok {
		log.Warn().Str("hotel", req.HotelID).Str("room", req.RoomID.String()).Msg("booking: room not found")
		return domain.BookingIntent{}, domain.RoomDetails{}, domain.Validation("Room not found", domain.ErrRoomNotFound)
	}

	nights := NightsBetween(req.Range.CheckIn, req.Range.CheckOut)
	if nights <= 0 {
		log.Warn().Str("hotel", req.HotelID).Msg("booking: invalid date range")
		return domain.BookingIntent{}, domain.RoomDetails{}, domain.Validation("Invalid date range", domain.ErrInvalidDateRange)
	}

	rate := room.BasePrice
	if req.Rates != nil {
		rate = req.Rates.NightlyRate(room)
	}
	intent := domain.BookingIntent{
		UserID:     req.User.ID,
		RoomID:     room.RoomID.String(),
		HotelID:    req.HotelID,
		CheckIn:    req.Range.CheckIn.Format(domain.DateLayout),
		CheckOut:   req.Range.CheckOut.Format(domain.DateLayout),
		TotalPrice: roundCents(rate * float64(nights)),
		Email:      req.User.Email,
	}
	if err := validate.Struct(intent); err != nil {
		log.Warn().Err(err).Str("hotel", req.HotelID).Str("room", intent.RoomID).Msg("booking: intent incomplete")
		return domain.BookingIntent{}, domain.RoomDetails{}, domain.Validation("Booking details are incomplete", err)
	}

	number := room.Title
	if number == "" {
		number = room.RoomID.String()
	}
	details := domain.RoomDetails{
		RoomNumber: number,
		RoomType:   room.TypeName(),
		Nights:     nights,
		BasePrice:  room.BasePrice,
	}
	return intent, details, nil
}

func roundCents(v float64) float64 { return math.Round(v*100) / 100 }
