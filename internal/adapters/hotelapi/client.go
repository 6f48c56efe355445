// internal/adapters/hotelapi/client.go
package hotelapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_storefront/internal/adapters/observability"
	"hotel_storefront/internal/domain"
)

const service = "hotelapi"

// Client talks to the hotel backend: inventory, loyalty, discount and payments.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if rps <= 0 {
		rps = 20
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// StatusError is a non-success answer from the backend.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote %d", e.Status)
	}
	return fmt.Sprintf("bad status %d: %s", e.Status, e.Body)
}

func (e *StatusError) HTTPStatus() int { return e.Status }

// ---- Public API ----

func (c *Client) GetHotelDetails(ctx context.Context, hotelID string, p domain.SearchParams) (domain.Hotel, error) {
	u := fmt.Sprintf("%s/HotelDetails/%s?%s", c.base, url.PathEscape(hotelID), p.Query().Encode())
	var out domain.Hotel
	if err := c.get(ctx, "HotelDetails", u, &out); err != nil {
		return domain.Hotel{}, err
	}
	if out.ID == "" {
		out.ID = domain.ID(hotelID)
	}
	return out, nil
}

func (c *Client) GetLoyaltyLevel(ctx context.Context, userID string) (domain.LoyaltyInfo, error) {
	u := fmt.Sprintf("%s/Loyalty/get-loyalty-level?%s", c.base, url.Values{"userId": {userID}}.Encode())
	var out domain.LoyaltyInfo
	return out, c.get(ctx, "Loyalty", u, &out)
}

func (c *Client) PreviewDiscount(ctx context.Context, userID string, orderAmount float64) (float64, error) {
	body := struct {
		UserID      string  `json:"userId"`
		OrderAmount float64 `json:"orderAmount"`
	}{userID, orderAmount}
	var out struct {
		DiscountedAmount *float64 `json:"discountedAmount"`
	}
	if err := c.post(ctx, "Discount/preview", c.base+"/Discount/preview", body, &out); err != nil {
		return 0, err
	}
	if out.DiscountedAmount == nil {
		return 0, errors.New("discount preview: missing discountedAmount")
	}
	return *out.DiscountedAmount, nil
}

func (c *Client) CreatePaymentSession(ctx context.Context, req domain.PaymentRequest) (domain.PaymentSession, error) {
	var out domain.PaymentSession
	if err := c.post(ctx, "payments/create", c.base+"/payments/create", req, &out); err != nil {
		return domain.PaymentSession{}, err
	}
	if out.ReservationID == "" {
		return domain.PaymentSession{}, errors.New("payments/create: missing reservationId")
	}
	return out, nil
}

// ---- Internals ----

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := c.newRequest(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(service, endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = &StatusError{Status: resp.StatusCode}
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		default:
			return decode(resp, out)
		}
	}

	return lastErr
}

// post sends once: creating a payment session or previewing a discount is
// not safe to replay blindly.
func (c *Client) post(ctx context.Context, endpoint, url string, body, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	observability.ObserveExternal(service, endpoint, resp.StatusCode, time.Since(start))
	return decode(resp, out)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "hotel-storefront/1.0")
	return req, nil
}

// decode maps the status code and closes the body.
func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, &StatusError{Status: resp.StatusCode})
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrUnauthorized, &StatusError{Status: resp.StatusCode})
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
