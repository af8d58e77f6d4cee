// Package main runs the barcode-to-shopping-list pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/config"
	"github.com/imrishuroy/scan2list/internal/logging"
	"github.com/imrishuroy/scan2list/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code: 0 on interrupt or end of input, 1 on configuration,
// startup or fatal input errors, 2 on bad flags.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "scan2list: %v\n", err)
		return 1
	}

	fs := flag.NewFlagSet("scan2list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Scanner input: stdin, device or http")
	fs.StringVar(&cfg.DeviceName, "device", cfg.DeviceName, "Case-insensitive substring of the scanner device name")
	fs.BoolVar(&cfg.Grab, "grab", cfg.Grab, "Grab the scanner device exclusively")
	fs.Float64Var(&cfg.DebounceSeconds, "debounce", cfg.DebounceSeconds, "Seconds a repeated barcode is ignored; 0 ignores any immediate repeat")
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "Listen address in http mode")
	showLists := fs.Bool("lists", false, "Print the account's shopping lists and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "scan2list: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(stderr, "scan2list: %v\n", err)
		return 1
	}
	defer logger.Sync()

	a, err := newApp(ctx, cfg, stdin, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return 1
	}
	defer a.close()

	if *showLists {
		if err := a.printLists(ctx, stdout); err != nil {
			logger.Error("list lookup failed", zap.Error(err))
			return 1
		}
		return 0
	}

	a.checkList(ctx)
	logger.Info("waiting for scans",
		zap.String("mode", cfg.Mode),
		zap.String("list_id", cfg.ListID),
		zap.Duration("debounce", cfg.Debounce()))

	p := pipeline.New(a.source, a.fulfiller, cfg.Debounce(), a.recorder, logger.Named("pipeline"))
	if err := p.Run(a.runCtx(ctx)); err != nil {
		return 1
	}
	if err := a.serveErr(); err != nil {
		logger.Error("http intake failed", zap.Error(err))
		return 1
	}
	logger.Info("shutting down")
	return 0
}
