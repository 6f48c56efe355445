package domain

import (
	"net/url"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// SearchParams is what the detail page is addressed by.
type SearchParams struct {
	DateRange
	Adults int
}

// Query renders the params the way they appear in the page URL.
func (p SearchParams) Query() url.Values {
	v := url.Values{}
	v.Set("checkIn", p.CheckIn.Format(DateLayout))
	v.Set("checkOut", p.CheckOut.Format(DateLayout))
	v.Set("adults", strconv.Itoa(p.Adults))
	return v
}

type LoyaltyInfo struct {
	LevelName          string  `json:"levelName"`
	DiscountPercentage float64 `json:"discountPercentage"`
	SpecialPerks       string  `json:"specialPerks"`
}

// DiscountState is the client-side overlay on a room; it is never sent back
// to the inventory service.
type DiscountState struct {
	DiscountedPrice   *float64 `json:"discountedPrice,omitempty"`
	IsDiscountApplied bool     `json:"isDiscountApplied"`
}

// User is the caller as identified by the auth gateway. A nil *User is anonymous.
type User struct {
	ID    string
	Email string
}

type BookingIntent struct {
	UserID     string  `json:"userId" validate:"required"`
	RoomID     string  `json:"roomId" validate:"required"`
	HotelID    string  `json:"hotelId" validate:"required"`
	CheckIn    string  `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut   string  `json:"checkOut" validate:"required,datetime=2006-01-02"`
	TotalPrice float64 `json:"totalPrice" validate:"gt=0"`
	Email      string  `json:"email" validate:"required,email"`
}

// RoomDetails is a read-only snapshot shown on the payment page.
type RoomDetails struct {
	RoomNumber string  `json:"roomNumber"`
	RoomType   string  `json:"roomType"`
	Nights     int     `json:"nights"`
	BasePrice  float64 `json:"basePrice"`
}

// Handoff is the typed navigation state passed from the detail view to the
// payment view. It only ever lives in process memory.
type Handoff struct {
	PaymentData BookingIntent `json:"paymentData"`
	RoomDetails RoomDetails   `json:"roomDetails"`
	ReturnTo    string        `json:"-"`
}

type ShippingAddress struct {
	ContactName string `json:"contactName" validate:"required"`
	City        string `json:"city" validate:"required"`
	Country     string `json:"country" validate:"required"`
	Address     string `json:"address" validate:"required"`
}

// PaymentRequest is the body of POST /payments/create.
type PaymentRequest struct {
	BookingIntent
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

type PaymentSession struct {
	ReservationID       string `json:"reservationId"`
	CheckoutFormContent string `json:"checkoutFormContent"`
}

// CheckoutRecord is what the ledger keeps for each payment session created.
type CheckoutRecord struct {
	ReservationID string
	Token         string
	UserID        string
	HotelID       string
	RoomID        string
	CheckIn       string
	CheckOut      string
	TotalPrice    float64
}
