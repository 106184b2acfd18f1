package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminservice "ride-share/cmd/admin_service"
	bookingservice "ride-share/cmd/booking_service"
	"ride-share/cmd/migrate"
	notificationworker "ride-share/cmd/notification_worker"
	tripservice "ride-share/cmd/trip_service"
	"ride-share/internal/cli"
)

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fs := flag.NewFlagSet(mode, flag.ContinueOnError)
	cfgPath := fs.String("config", cli.DefaultConfigPath, "Path to the YAML configuration file")
	cli.AttachUsage(fs, mode)

	switch mode {
	case cli.ModeTrip, cli.ModeBooking, cli.ModeAdmin:
		def, run := 100, tripservice.Run
		switch mode {
		case cli.ModeBooking:
			run = bookingservice.Run
		case cli.ModeAdmin:
			def, run = 50, adminservice.Run
		}
		maxConc := fs.Int("max-concurrent", def, "Maximum number of concurrent HTTP requests to process")
		parseOrExit(fs, svcArgs)
		if *maxConc < 1 {
			fail(fs, "--max-concurrent must be >= 1")
		}
		exitOnErr(run(ctx, *cfgPath, *maxConc))

	case cli.ModeNotification:
		prefetch := fs.Int("prefetch", 8, "RabbitMQ prefetch count for the consumer channel")
		parseOrExit(fs, svcArgs)
		if *prefetch <= 0 {
			fail(fs, "--prefetch must be > 0")
		}
		exitOnErr(notificationworker.Run(ctx, *cfgPath, *prefetch))

	case cli.ModeMigrate:
		parseOrExit(fs, svcArgs)
		exitOnErr(migrate.Run(ctx, *cfgPath))

	default:
		// should not happen because ParseMode validates known modes
		fmt.Fprintln(os.Stderr, "Error: unknown mode")
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}

func parseOrExit(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}

func fail(fs *flag.FlagSet, msg string) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	fs.Usage()
	os.Exit(2)
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
