// ABOUTME: Admin CLI for moderating Asghar Autos rental bookings
// ABOUTME: Lists bookings, approves pending ones, and reviews identity documents

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/asgharautos/rental/internal/api"
	"github.com/asgharautos/rental/internal/config"
	"github.com/asgharautos/rental/internal/media"
	"github.com/asgharautos/rental/internal/moderation"
)

const banner = `
                _        _               _           _
 _ __ ___ _ __ | |_ __ _| |      __ _ __| |_ __ ___ (_)_ __
| '__/ _ \ '_ \| __/ _' | |_____/ _' / _' | '_ ' _ \| | '_ \
| | |  __/ | | | || (_| | |____| (_| | (_| | | | | | | | | | |
|_|  \___|_| |_|\__\__,_|_|     \__,_|\__,_|_| |_| |_|_|_| |_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		color.Red("Error loading config: %v", err)
		os.Exit(1)
	}
	if override := os.Getenv("RENTAL_BACKEND_URL"); override != "" {
		cfg.Backend.BaseURL = override
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	client := api.New(cfg.Backend.BaseURL, cfg.Backend.SkipTunnelWarning, logger)
	svc := moderation.New(client, logger)

	cmd := os.Args[1]
	args := os.Args[2:]
	ctx := context.Background()

	switch cmd {
	case "bookings":
		err = cmdBookings(ctx, svc)
	case "approve":
		err = cmdApprove(ctx, svc, args)
	case "docs":
		err = cmdDocs(ctx, cfg, client, svc, args)
	case "help", "-h", "--help":
		printUsage()
		err = nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: rental-admin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  bookings            List all bookings")
	fmt.Println("  approve <id>        Approve a pending booking")
	fmt.Println("  docs <id>           Review a booking's identity documents")
	fmt.Println("  help                Show this help")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  RENTAL_CONFIG        Config file path")
	fmt.Println("  RENTAL_BACKEND_URL   Backend base URL (overrides config)")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  rental-admin bookings")
	fmt.Println("  rental-admin approve 4f7c1a2e-...")
	fmt.Println("  rental-admin docs 4f7c1a2e-...")
	fmt.Println()
}

func cmdBookings(ctx context.Context, svc *moderation.Service) error {
	if err := svc.Refresh(ctx); err != nil {
		return err
	}
	printBookings(svc.Bookings())
	return nil
}

func cmdApprove(ctx context.Context, svc *moderation.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rental-admin approve <booking-id>")
	}

	// The replica must be populated before the pending check can run.
	if err := svc.Refresh(ctx); err != nil {
		return err
	}
	if err := svc.Approve(ctx, args[0]); err != nil {
		return err
	}

	color.Green("Booking approved!")
	fmt.Println()
	printBookings(svc.Bookings())
	return nil
}

// cmdDocs stages a booking's identity documents locally, waits for the
// reviewer, and releases every staged file before exiting.
func cmdDocs(ctx context.Context, cfg *config.Config, client *api.Client, svc *moderation.Service, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rental-admin docs <booking-id>")
	}

	if err := svc.Refresh(ctx); err != nil {
		return err
	}
	docs, err := svc.Documents(args[0])
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents on file for this booking.")
		return nil
	}

	var loaders []*media.Loader
	defer func() {
		for _, l := range loaders {
			l.Close()
		}
	}()

	fmt.Printf("Staging %d document(s)...\n\n", len(docs))
	for _, doc := range docs {
		loader := media.New(client, client.Origin(), cfg.Backend.DevHost, cfg.Media.CacheDir, slog.Default())
		loaders = append(loaders, loader)

		ref, err := loader.Load(ctx, doc.Locator)
		if err != nil {
			color.Red("  %s: unavailable (%v)", doc.Label, err)
			continue
		}
		fmt.Printf("  %s: %s\n", doc.Label, ref.Path)
	}

	fmt.Println("\nPress Enter when done reviewing (staged files are then removed).")
	bufio.NewScanner(os.Stdin).Scan()
	return nil
}

func printBookings(bookings []api.Booking) {
	if len(bookings) == 0 {
		fmt.Println("No bookings found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BOOKING ID\tUSER\tCAR TYPE\tDATES\tPRICE (PKR)\tSTATUS")
	for _, b := range bookings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s - %s\t%.0f\t%s\n",
			shortID(b.ID), b.UserID, b.CarType, b.PickupDate, b.ReturnDate,
			b.TotalPrice, statusBadge(b.Status))
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func statusBadge(status string) string {
	switch status {
	case moderation.StatusApproved:
		return color.GreenString(status)
	case moderation.StatusPending:
		return color.YellowString(status)
	default:
		return status
	}
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
