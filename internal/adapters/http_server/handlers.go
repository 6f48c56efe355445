// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_storefront/internal/app"
	"hotel_storefront/internal/domain"
)

const (
	viewHeader      = "X-View-ID"
	userIDHeader    = "X-User-ID"
	userEmailHeader = "X-User-Email"
)

type Handlers struct {
	Store    *app.Storefront
	Checkout *app.CheckoutService
	Now      func() time.Time
}

type problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.Now == nil {
		h.Now = time.Now
	}
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/hotels/{hotelID}/availability", h.availability)
		r.Route("/views/{viewID}", func(r chi.Router) {
			r.Get("/", h.page)
			r.Delete("/", h.closeView)
			r.Post("/rooms/{roomID}/discount", h.previewDiscount)
			r.Delete("/rooms/{roomID}/discount", h.removeDiscount)
			r.Post("/rooms/{roomID}/checkout", h.checkout)
		})
		r.Route("/payments/{token}", func(r chi.Router) {
			r.Get("/", h.openPayment)
			r.Post("/complete", h.completePayment)
			r.Delete("/", h.closePayment)
		})
	})
}

// userFrom reads the identity forwarded by the auth gateway.
func userFrom(r *http.Request) *domain.User {
	id := strings.TrimSpace(r.Header.Get(userIDHeader))
	if id == "" {
		return nil
	}
	return &domain.User{ID: id, Email: strings.TrimSpace(r.Header.Get(userEmailHeader))}
}

func writeProblem(w http.ResponseWriter, p problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError turns an app error into a problem response whose title is the
// notification text shown to the user.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrSuperseded) {
		log.Debug().Str("route", routeOf(r)).Msg("search superseded by a newer one")
		writeProblem(w, problem{Title: "A newer search replaced this one", Status: http.StatusConflict})
		return
	}
	if errors.Is(err, context.Canceled) {
		log.Debug().Str("path", r.URL.Path).Msg("request cancelled by client")
		writeProblem(w, problem{Title: "Request cancelled", Status: http.StatusServiceUnavailable})
		return
	}
	ue, ok := domain.AsUserError(err)
	if !ok {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		writeProblem(w, problem{Title: "Something went wrong", Status: http.StatusInternalServerError})
		return
	}

	status := http.StatusBadRequest
	switch ue.Kind {
	case domain.KindValidation:
		switch {
		case errors.Is(ue, domain.ErrUnauthenticated):
			status = http.StatusUnauthorized
		case errors.Is(ue, domain.ErrNotFound), errors.Is(ue, domain.ErrRoomNotFound):
			status = http.StatusNotFound
		case errors.Is(ue, domain.ErrSlotTaken):
			status = http.StatusConflict
		}
	case domain.KindUpstream:
		status = http.StatusBadGateway
		if errors.Is(ue, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
	case domain.KindHandoff:
		status = http.StatusConflict
	}
	ev := log.Warn()
	if ue.Kind == domain.KindUpstream {
		ev = log.Error()
	}
	ev.Err(ue.Err).
		Str("route", routeOf(r)).
		Str("kind", ue.Kind.String()).
		Int("status", status).
		Msg(ue.Message)

	if ue.Redirect != "" {
		w.Header().Set("Location", ue.Redirect)
	}
	writeProblem(w, problem{Title: ue.Message, Status: status, Kind: ue.Kind.String(), Redirect: ue.Redirect})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if etag != "" {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

func (h *Handlers) availability(w http.ResponseWriter, r *http.Request) {
	hotelID := chi.URLParam(r, "hotelID")
	q := r.URL.Query()
	params, err := app.ParseSearch(q.Get("checkIn"), q.Get("checkOut"), q.Get("adults"), h.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	viewID := r.Header.Get(viewHeader)
	if viewID == "" {
		viewID = q.Get("view")
	}

	page, err := h.Store.Search(r.Context(), viewID, hotelID, params, userFrom(r))
	if page.ViewID != "" {
		w.Header().Set(viewHeader, page.ViewID)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Location", page.CanonicalURL)
	writeJSON(w, r, http.StatusOK, page)
}

func (h *Handlers) page(w http.ResponseWriter, r *http.Request) {
	page, err := h.Store.Page(chi.URLParam(r, "viewID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set(viewHeader, page.ViewID)
	w.Header().Set("Content-Location", page.CanonicalURL)
	writeJSON(w, r, http.StatusOK, page)
}

func (h *Handlers) closeView(w http.ResponseWriter, r *http.Request) {
	if !h.Store.Close(chi.URLParam(r, "viewID")) {
		writeProblem(w, problem{Title: "Not Found", Status: http.StatusNotFound})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) previewDiscount(w http.ResponseWriter, r *http.Request) {
	lbl, err := h.Store.PreviewDiscount(r.Context(), chi.URLParam(r, "viewID"), domain.ID(chi.URLParam(r, "roomID")), userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lbl)
}

func (h *Handlers) removeDiscount(w http.ResponseWriter, r *http.Request) {
	lbl, err := h.Store.RemoveDiscount(chi.URLParam(r, "viewID"), domain.ID(chi.URLParam(r, "roomID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, lbl)
}

func (h *Handlers) checkout(w http.ResponseWriter, r *http.Request) {
	token, err := h.Store.Checkout(chi.URLParam(r, "viewID"), domain.ID(chi.URLParam(r, "roomID")), userFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	loc := "/v1/payments/" + url.PathEscape(token)
	w.Header().Set("Location", loc)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"paymentUrl": loc})
}

type documenter interface{ Document() []byte }

func (h *Handlers) openPayment(w http.ResponseWriter, r *http.Request) {
	_, loader, err := h.Checkout.Open(r.Context(), chi.URLParam(r, "token"), r.Header.Get("Referer"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, ok := loader.(documenter)
	if !ok {
		log.Error().Msg("checkout loader cannot render a document")
		writeProblem(w, problem{Title: "Could not display the payment form", Status: http.StatusInternalServerError})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(d.Document()); err != nil {
		log.Error().Err(err).Msg("failed to write checkout document")
	}
}

func (h *Handlers) completePayment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReservationID string `json:"reservationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ReservationID == "" {
		writeProblem(w, problem{Title: "reservationId is required", Status: http.StatusBadRequest})
		return
	}
	if err := h.Checkout.Complete(chi.URLParam(r, "token"), body.ReservationID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) closePayment(w http.ResponseWriter, r *http.Request) {
	if !h.Checkout.Close(r.Context(), chi.URLParam(r, "token")) {
		writeProblem(w, problem{Title: "Not Found", Status: http.StatusNotFound})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
