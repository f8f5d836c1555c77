package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcalzada-xor/meshpeer/internal/app"
	"github.com/lcalzada-xor/meshpeer/internal/config"
	"github.com/lcalzada-xor/meshpeer/internal/telemetry"
)

var version = "dev"

const usage = `usage: mpmctl <command> [flags]

commands:
  gen     write an Open, Confirm, Close sequence to -pcap or inject it on -i
  decode  decode mesh peering frames from -pcap or a live capture on -i
  serve   run the HTTP codec and observation API on -addr, streaming a live
          capture on -i to websocket clients

Run "mpmctl <command> -h" for the flags of a command.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	command := args[0]
	switch command {
	case "gen", "decode", "serve":
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		return 2
	}

	cfg, err := config.Load(command, args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// Setup Structured Logging
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	// Initialize Tracing
	var traceOut io.Writer = io.Discard
	if cfg.Trace {
		traceOut = os.Stderr
	}
	shutdownTracer, err := telemetry.InitTracer(traceOut, version)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				slog.Error("Failed to shutdown tracer", "error", err)
			}
		}()
	}

	application, err := app.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer application.Close()

	if command == "decode" || command == "serve" {
		if err := application.OpenStore(); err != nil {
			slog.Error("Failed to open store", "error", err)
			return 1
		}
	}

	// Root Context with cancellation on Interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch command {
	case "gen":
		_, err = application.Generate(ctx)
	case "decode":
		var summary app.DecodeSummary
		summary, err = application.Decode(ctx)
		slog.Info("decode finished", "packets", summary.Packets, "observations", summary.Observations,
			"filtered", summary.Filtered, "errors", summary.Errors, "saved", summary.Saved)
	case "serve":
		err = application.Serve(ctx)
	}

	if err != nil {
		slog.Error("Command failed", "command", command, "error", err)
		return 1
	}
	return 0
}
