package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	APIBase     string
	APIKey      string
	APIRPS      int
	CacheTTL    time.Duration
	ViewTTL     time.Duration
	HandoffTTL  time.Duration
	SlotTTL     time.Duration
	LoginURL    string

	// Shipping fields the payment backend requires but the booking page
	// never asks for.
	ContactName string
	City        string
	Country     string
	Address     string

	ProbeWorkers  int
	ProbeHotelIDs []string
}

// Load reads the environment, after merging an optional .env file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env not loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	secs := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		LogLevel:      env("LOG_LEVEL", "info"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ""),
		MySQLDSN:      env("MYSQL_DSN", ""),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisPass:     env("REDIS_PASSWORD", ""),
		RedisDB:       atoi("REDIS_DB", 0),
		APIBase:       env("API_BASE_URL", "http://localhost:5000/api"),
		APIKey:        env("API_KEY", ""),
		APIRPS:        atoi("API_RPS", 20),
		CacheTTL:      secs("CACHE_TTL_SECONDS", 900),
		ViewTTL:       secs("VIEW_TTL_SECONDS", 1800),
		HandoffTTL:    secs("HANDOFF_TTL_SECONDS", 900),
		SlotTTL:       secs("CHECKOUT_SLOT_TTL_SECONDS", 3600),
		LoginURL:      env("LOGIN_URL", "/login"),
		ContactName:   env("CHECKOUT_CONTACT_NAME", "Hotel Guest"),
		City:          env("CHECKOUT_CITY", "Istanbul"),
		Country:       env("CHECKOUT_COUNTRY", "Turkey"),
		Address:       env("CHECKOUT_ADDRESS", "Not provided"),
		ProbeWorkers:  atoi("PROBE_WORKERS", 4),
		ProbeHotelIDs: list(os.Getenv("PROBE_HOTEL_IDS")),
	}
	if c.MySQLDSN == "" {
		log.Warn().Msg("MYSQL_DSN is empty; checkout ledger disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func list(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
