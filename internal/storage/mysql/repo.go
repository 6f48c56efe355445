package mysql

import (
	"context"
	"database/sql"
	"unicode/utf8"

	"hotel_storefront/internal/domain"
)

const maxReason = 512

// Repo is the checkout ledger. The storefront only writes to it; the read
// helpers exist for operators and tests.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) RecordSession(ctx context.Context, rec domain.CheckoutRecord) error {
	_, err := r.db.ExecContext(ctx, insertSessionSQL,
		rec.ReservationID,
		rec.Token,
		rec.UserID,
		rec.HotelID,
		rec.RoomID,
		rec.CheckIn,
		rec.CheckOut,
		rec.TotalPrice,
	)
	return err
}

func (r *Repo) LogFailure(ctx context.Context, stage, ref string, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertFailureSQL, stage, ref, status, truncate(reason, maxReason))
	return err
}

func (r *Repo) GetSession(ctx context.Context, reservationID string) (domain.CheckoutRecord, error) {
	var rec domain.CheckoutRecord
	err := r.db.QueryRowContext(ctx, getSessionSQL, reservationID).Scan(
		&rec.ReservationID,
		&rec.Token,
		&rec.UserID,
		&rec.HotelID,
		&rec.RoomID,
		&rec.CheckIn,
		&rec.CheckOut,
		&rec.TotalPrice,
	)
	if err == sql.ErrNoRows {
		return domain.CheckoutRecord{}, domain.ErrNotFound
	}
	return rec, err
}

func (r *Repo) FailureHits(ctx context.Context, stage, ref string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countFailuresSQL, stage, ref).Scan(&n)
	return n, err
}

// Nop is the ledger used when no database is configured.
type Nop struct{}

func (Nop) RecordSession(context.Context, domain.CheckoutRecord) error    { return nil }
func (Nop) LogFailure(context.Context, string, string, int, string) error { return nil }

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
