package domain

import (
	"context"
	"time"
)

// Upstream contracts (one interface per backend endpoint family).

type InventoryClient interface {
	GetHotelDetails(ctx context.Context, hotelID string, p SearchParams) (Hotel, error)
}

type LoyaltyClient interface {
	GetLoyaltyLevel(ctx context.Context, userID string) (LoyaltyInfo, error)
}

type DiscountClient interface {
	PreviewDiscount(ctx context.Context, userID string, orderAmount float64) (float64, error)
}

type PaymentClient interface {
	CreatePaymentSession(ctx context.Context, req PaymentRequest) (PaymentSession, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// SlotStore claims session-scoped keys; Claim reports false when the key is taken.
type SlotStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ScriptLoader mounts a third-party checkout fragment. Implementations render
// it at most once until Unload is called.
type ScriptLoader interface {
	Load(ctx context.Context) error
	IsLoaded() bool
	Unload()
}

type LoaderFactory func(containerID, content string) ScriptLoader

// CheckoutLedger is write-only operator diagnostics.
type CheckoutLedger interface {
	RecordSession(ctx context.Context, rec CheckoutRecord) error
	LogFailure(ctx context.Context, stage, ref string, status int, reason string) error
}
