package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeTrip         = "trip-service"
	ModeBooking      = "booking-service"
	ModeNotification = "notification-worker"
	ModeAdmin        = "admin-service"
	ModeMigrate      = "migrate"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config/config.yaml"

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeTrip, "trip", "t":
		return ModeTrip, true
	case ModeBooking, "booking", "b":
		return ModeBooking, true
	case ModeNotification, "notifications", "notify", "n":
		return ModeNotification, true
	case ModeAdmin, "admin", "a":
		return ModeAdmin, true
	case ModeMigrate, "migrations", "m":
		return ModeMigrate, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `booking-service --max-concurrent=50`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for _, arg := range args {
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}
		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<service>")
	}
	m, ok := isKnownMode(mode)
	if !ok {
		return "", out, fmt.Errorf("unknown mode %q", mode)
	}
	return m, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./ride-share --mode=<service> [flags]

Services (modes):
  trip-service            Trip inventory HTTP API (create, search, lifecycle)
  booking-service         Booking orchestrator HTTP API (bookings, payments, ratings)
  notification-worker     Consumes notification events and pushes them to WebSocket subscribers
  admin-service           Admin metrics API (overview, active trips)
  migrate                 Applies pending database migrations and exits

Examples:
  ./ride-share --mode=trip-service --max-concurrent=150
  ./ride-share --mode=booking-service --config=config/config.yaml
  ./ride-share --mode=notification-worker --prefetch=16
  ./ride-share --mode=admin-service --max-concurrent=50
  ./ride-share migrate`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./ride-share --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
