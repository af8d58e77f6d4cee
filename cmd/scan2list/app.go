package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/scan2list/internal/aws"
	"github.com/imrishuroy/scan2list/internal/config"
	"github.com/imrishuroy/scan2list/internal/fulfill"
	"github.com/imrishuroy/scan2list/internal/grocery"
	"github.com/imrishuroy/scan2list/internal/handlers"
	"github.com/imrishuroy/scan2list/internal/history"
	"github.com/imrishuroy/scan2list/internal/lookup"
	"github.com/imrishuroy/scan2list/internal/metrics"
	"github.com/imrishuroy/scan2list/internal/scanner"
)

// historyTTL bounds how long journal entries are kept.
const historyTTL = 90 * 24 * time.Hour

// app holds the collaborators of one scan2list process.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	groceries *grocery.Client
	source    scanner.Source
	fulfiller fulfill.Fulfiller
	recorder  metrics.Recorder

	server   *http.Server
	serveErr func() error
	cancel   context.CancelFunc
}

func newApp(ctx context.Context, cfg config.Config, stdin io.Reader, logger *zap.Logger) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.Nop{},
		serveErr: func() error { return nil },
	}

	groceries, err := grocery.NewClient(cfg.GroceryBaseURL, cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}
	if err := groceries.Login(ctx); err != nil {
		return nil, fmt.Errorf("list service login: %w", err)
	}
	a.groceries = groceries
	logger.Info("logged in to list service", zap.String("user", cfg.Username))

	var clients *aws.AWSClients
	if cfg.UsesAWS() {
		clients, err = aws.NewAWSClients(ctx)
		if err != nil {
			return nil, err
		}
	}
	if cfg.MetricsNamespace != "" {
		a.recorder = metrics.NewCloudWatch(clients.CloudWatch, cfg.MetricsNamespace, logger.Named("metrics"))
	}

	if cfg.QueueURL != "" {
		a.fulfiller = fulfill.NewForwarder(aws.NewPublisher(clients.SQS, cfg.QueueURL), logger.Named("forward"))
	} else {
		opts := []fulfill.Option{fulfill.WithMetrics(a.recorder), fulfill.WithNote(cfg.ItemNote)}
		if cfg.HistoryTable != "" {
			opts = append(opts, fulfill.WithJournal(history.NewStore(clients.DynamoDB, cfg.HistoryTable, historyTTL)))
		}
		products := lookup.NewClient(cfg.LookupBaseURL, cfg.UserAgent, &http.Client{Timeout: 10 * time.Second})
		a.fulfiller = fulfill.NewService(products, groceries, cfg.ListID, logger.Named("fulfill"), opts...)
	}

	if err := a.openSource(stdin); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openSource(stdin io.Reader) error {
	log := a.logger.Named("scanner")
	switch a.cfg.Mode {
	case config.ModeDevice:
		src, err := scanner.OpenDevice(scanner.DeviceConfig{
			NameContains: a.cfg.DeviceName,
			Grab:         a.cfg.Grab,
			PollInterval: a.cfg.PollInterval,
		})
		if err != nil {
			return fmt.Errorf("open scanner: %w", err)
		}
		log.Info("scanner device opened", zap.String("match", a.cfg.DeviceName))
		a.source = src
	case config.ModeHTTP:
		src := scanner.NewChannelSource(64)
		gin.SetMode(gin.ReleaseMode)
		a.server = &http.Server{
			Addr:              a.cfg.HTTPAddr,
			Handler:           handlers.SetupRouter(handlers.HandlerConfig{Submitter: src, Logger: log}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		a.source = src
	default:
		a.source = scanner.NewLineSource(stdin)
	}
	return nil
}

// runCtx starts the HTTP intake, if any, and returns the context the pipeline runs
// under. A listener failure cancels that context.
func (a *app) runCtx(ctx context.Context) context.Context {
	if a.server == nil {
		return ctx
	}
	ctx, a.cancel = context.WithCancel(ctx)
	errc := make(chan error, 1)
	go func() {
		a.logger.Info("http intake listening", zap.String("addr", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
		if err != nil {
			a.cancel()
		}
	}()
	a.serveErr = func() error {
		select {
		case err := <-errc:
			return err
		default:
			return nil
		}
	}
	return ctx
}

func (a *app) printLists(ctx context.Context, w io.Writer) error {
	lists, err := a.groceries.Lists(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tITEMS")
	for _, l := range lists {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", l.ID, l.Name, l.ActiveCount)
	}
	return tw.Flush()
}

// checkList warns when the configured list is missing from the account.
func (a *app) checkList(ctx context.Context) {
	lists, err := a.groceries.Lists(ctx)
	if err != nil {
		a.logger.Warn("could not fetch lists", zap.Error(err))
		return
	}
	for _, l := range lists {
		if l.ID == a.cfg.ListID {
			a.logger.Info("target list", zap.String("list_id", l.ID), zap.String("name", l.Name))
			return
		}
	}
	a.logger.Warn("list id not found in account; run with -lists to see valid ids",
		zap.String("list_id", a.cfg.ListID))
}

func (a *app) close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("http intake shutdown", zap.Error(err))
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.logger.Warn("close scanner", zap.Error(err))
		}
	}
}
