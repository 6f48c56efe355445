// Command probe runs the availability pipeline once per configured hotel and
// logs what a guest would be offered for tonight.
package main

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_storefront/internal/adapters/hotelapi"
	"hotel_storefront/internal/adapters/observability"
	"hotel_storefront/internal/app"
	"hotel_storefront/internal/shared"
)

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if len(cfg.ProbeHotelIDs) == 0 {
		log.Fatal().Msg("PROBE_HOTEL_IDS is empty")
	}
	log.Info().
		Str("base", cfg.APIBase).
		Int("workers", cfg.ProbeWorkers).
		Int("hotels", len(cfg.ProbeHotelIDs)).
		Msg("probe starting")

	client, err := hotelapi.New(cfg.APIBase, cfg.APIKey, cfg.APIRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize hotel API client")
	}
	params := app.DefaultSearch(time.Now())

	sem := semaphore.NewWeighted(int64(max(cfg.ProbeWorkers, 1)))
	var wg sync.WaitGroup

	for _, id := range cfg.ProbeHotelIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(hotelID string) {
			defer wg.Done()
			defer sem.Release(1)

			// one fetcher per hotel: a shared one would supersede itself
			f := app.NewAvailabilityFetcher(client, nil)
			a, err := f.Fetch(ctx, hotelID, params, nil)
			if err != nil {
				log.Warn().Str("hotel", hotelID).Err(err).Msg("probe failed")
				return
			}
			pricing := app.NewPricingEngine(client)
			cheapest := ""
			var low float64
			for _, t := range a.Rooms.Types() {
				r, _ := a.Rooms.Get(t)
				lbl := pricing.DisplayPrice(r, a.Nights)
				if cheapest == "" || lbl.Amount < low {
					low, cheapest = lbl.Amount, lbl.Text
				}
			}
			log.Info().
				Str("hotel", hotelID).
				Int("rooms", len(a.Hotel.Rooms)).
				Int("room_types", a.Rooms.Len()).
				Str("from", cheapest).
				Msg("probe ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("probe completed")
}
