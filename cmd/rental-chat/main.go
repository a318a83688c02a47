// ABOUTME: Interactive booking client for the Asghar Autos rental agent
// ABOUTME: Chat loop with identity verification flow and transcript export

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/asgharautos/rental/internal/api"
	"github.com/asgharautos/rental/internal/chat"
	"github.com/asgharautos/rental/internal/config"
	"github.com/asgharautos/rental/internal/session"
	"github.com/asgharautos/rental/internal/verify"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: $RENTAL_CONFIG, ./rental.yaml, ~/.config/rental/config.yaml)")
	server := flag.String("server", "", "Backend base URL (overrides config)")
	flag.Parse()

	// A .env next to the binary is a convenience for development; absence
	// is not an error.
	_ = godotenv.Load()

	path := *configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config %s: %v\n", path, err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Backend.BaseURL = *server
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	sessions := session.Open(cfg.Session.Path, logger)
	defer sessions.Close()

	client := api.New(cfg.Backend.BaseURL, cfg.Backend.SkipTunnelWarning, logger)
	engine := chat.New(client, sessions, logger)
	pipeline := verify.New(client, engine, sessions, logger)

	fmt.Printf("rental-chat connected to %s\n", cfg.Backend.BaseURL)
	if id := sessions.Get(); id != "" {
		fmt.Printf("Session: %s\n", id)
	} else {
		fmt.Println("No session yet. Use /session <name> before chatting.")
	}
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	printModelReply(chat.WelcomeMessage)
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, engine, pipeline, sessions); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

func run(ctx context.Context, engine *chat.Engine, pipeline *verify.Pipeline, sessions *session.Store) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		if id := sessions.Get(); id != "" {
			fmt.Printf("[%s]> ", id)
		} else {
			fmt.Print("> ")
		}

		input, err := readLine(ctx, scanner)
		if err == io.EOF || err == context.Canceled {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		switch {
		case input == "/quit" || input == "/exit" || input == "/q":
			return nil

		case input == "/help":
			printHelp()
			fmt.Println()
			continue

		case strings.HasPrefix(input, "/session"):
			id := strings.TrimSpace(strings.TrimPrefix(input, "/session"))
			if id == "" {
				fmt.Println("Usage: /session <name>")
			} else {
				sessions.Set(id)
				fmt.Printf("Session set to %s\n", id)
			}
			fmt.Println()
			continue

		case input == "/verify":
			if sessions.Get() == "" {
				color.Yellow("Set a session first: /session <name>")
				fmt.Println()
				continue
			}
			engine.OpenGate()
			if err := runVerification(ctx, scanner, engine, pipeline); err != nil {
				color.Red("Verification error: %v", err)
			}
			fmt.Println()
			continue

		case input == "/cancel":
			engine.CloseGate()
			fmt.Println("Verification cancelled.")
			fmt.Println()
			continue

		case input == "/history":
			printHistory(engine)
			fmt.Println()
			continue

		case strings.HasPrefix(input, "/export"):
			target := strings.TrimSpace(strings.TrimPrefix(input, "/export"))
			if target == "" {
				fmt.Println("Usage: /export <file.html>")
			} else if err := exportTranscript(engine, target); err != nil {
				color.Red("Export failed: %v", err)
			} else {
				fmt.Printf("Transcript written to %s\n", target)
			}
			fmt.Println()
			continue
		}

		reply, err := engine.Send(ctx, input)
		switch {
		case err == chat.ErrEmptyMessage:
			// Blank input is already skipped above; nothing to report.
		case err == chat.ErrNoSession:
			color.Yellow("Set a session first: /session <name>")
		case err != nil:
			color.Red("Failed to send message: %v", err)
		default:
			printModelReply(reply)
			if engine.GateOpen() {
				color.Yellow("\nThe agent needs your identity documents. Run /verify to upload them.")
			}
		}
		fmt.Println()
	}
}

// runVerification walks the user through the document triple and submits.
// On a failed attempt the chosen files are kept, so re-running /verify
// lets the user press Enter through unchanged paths.
func runVerification(ctx context.Context, scanner *bufio.Scanner, engine *chat.Engine, pipeline *verify.Pipeline) error {
	if pipeline.State() != verify.StateFailed {
		pipeline.Begin()
	}

	fmt.Println("Identity verification: upload your CNIC (front & back) and a selfie.")

	front, back, selfie := pipeline.Documents()
	prompts := []struct {
		label   string
		current string
		set     func(string)
	}{
		{"CNIC front", front, pipeline.SetFront},
		{"CNIC back", back, pipeline.SetBack},
		{"Selfie", selfie, pipeline.SetSelfie},
	}

	for _, p := range prompts {
		if p.current != "" {
			fmt.Printf("%s [%s]: ", p.label, p.current)
		} else {
			fmt.Printf("%s: ", p.label)
		}
		line, err := readLine(ctx, scanner)
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line != "" {
			p.set(line)
		}
	}

	fmt.Println("Uploading and verifying...")
	if err := pipeline.Submit(ctx); err != nil {
		if err == verify.ErrVerificationFailed {
			color.Red("Verification failed. Please try again.")
			fmt.Println("Your selected files were kept; run /verify to resubmit.")
			return nil
		}
		return err
	}

	color.Green("Identity verified successfully!")

	// The resumption turn already ran; show the agent's follow-up.
	msgs := engine.Messages()
	if len(msgs) > 0 && msgs[len(msgs)-1].Role == chat.RoleModel {
		fmt.Println()
		printModelReply(msgs[len(msgs)-1].Content)
	}
	return nil
}

// readLine reads one line with context awareness so Ctrl+C interrupts a
// blocked prompt.
func readLine(ctx context.Context, scanner *bufio.Scanner) (string, error) {
	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		if scanner.Scan() {
			inputCh <- scanner.Text()
		} else {
			if err := scanner.Err(); err != nil {
				errCh <- err
			} else {
				errCh <- io.EOF
			}
		}
	}()

	select {
	case <-ctx.Done():
		return "", context.Canceled
	case err := <-errCh:
		return "", err
	case line := <-inputCh:
		return line, nil
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /session <name>   Set the session identity (persisted)")
	fmt.Println("  /verify           Upload identity documents")
	fmt.Println("  /cancel           Dismiss the verification request")
	fmt.Println("  /history          Show the conversation so far")
	fmt.Println("  /export <file>    Write the transcript as HTML")
	fmt.Println("  /help             Show this help")
	fmt.Println("  /quit             Exit")
}

func printHistory(engine *chat.Engine) {
	for _, msg := range engine.Messages() {
		if msg.Role == chat.RoleUser {
			fmt.Printf("\033[34m→\033[0m %s\n", msg.Content)
		} else {
			fmt.Printf("\033[32m←\033[0m %s\n", stripMarkdown(msg.Content))
		}
	}
}

func printModelReply(text string) {
	fmt.Println(stripMarkdown(text))
}

func exportTranscript(engine *chat.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return engine.ExportHTML(f)
}

// stripMarkdown removes common markdown formatting from text.
func stripMarkdown(s string) string {
	// Remove bold/italic markers (order matters: ** before *)
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	// Don't remove single * as it's often used for lists
	return s
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
