// Package app composes the observer's components from a loaded config: the
// price store, one session per configured venue, the data manager that
// routes their events, and the arbitrage scanner.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/morroisback/exchange-observer/internal/config"
	"github.com/morroisback/exchange-observer/internal/core/manager"
	"github.com/morroisback/exchange-observer/internal/core/model"
	"github.com/morroisback/exchange-observer/internal/core/scanner"
	"github.com/morroisback/exchange-observer/internal/core/store"
	"github.com/morroisback/exchange-observer/internal/exchange/binance"
	"github.com/morroisback/exchange-observer/internal/exchange/bybit"
	"github.com/morroisback/exchange-observer/internal/exchange/gateio"
	"github.com/morroisback/exchange-observer/internal/exchange/session"
	"github.com/morroisback/exchange-observer/internal/httpfetch"
	"github.com/morroisback/exchange-observer/internal/output"
	"github.com/morroisback/exchange-observer/internal/output/jsonl"
)

// Application wires every observer component together and owns their
// combined start/stop lifecycle.
type Application struct {
	logger  *zap.Logger
	store   *store.Store
	manager *manager.Manager
	scanner *scanner.Scanner
	audit   *jsonl.Writer
}

// Configure builds an Application from cfg without starting anything.
func Configure(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	priceStore := store.New()

	var audit *jsonl.Writer
	if cfg.Output.Enabled {
		w, err := jsonl.NewWriter(cfg.Output.Path, cfg.Output.BufferSize)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		audit = w
	}

	sessions := make(map[model.Venue]manager.Session, len(cfg.Venues))
	adapters := make(map[model.Venue]session.Adapter, len(cfg.Venues))
	for _, v := range cfg.Venues {
		venue := model.Venue(v)
		httpClient := httpfetch.New(cfg.HTTPTimeout(), cfg.HTTP.RequestsPerSecond)
		adapter, err := newAdapter(venue, httpClient)
		if err != nil {
			return nil, err
		}
		adapters[venue] = adapter
	}

	dataManager := manager.New(priceStore, logger, sessions, audit)
	for venue, adapter := range adapters {
		client := session.NewClient(adapter, dataManager, logger,
			session.WithReadTimeout(cfg.ReadTimeout()),
			session.WithPingInterval(cfg.PingInterval()),
			session.WithShutdownDeadline(cfg.ShutdownDeadline()),
			session.WithReconnectMaxDelay(cfg.ReconnectMaxDelay()),
		)
		sessions[venue] = client
	}

	arbScanner := scanner.New(
		priceStore,
		logger,
		cfg.CheckInterval(),
		cfg.Scanner.MinProfitPercent,
		cfg.Scanner.MaxDataAgeSeconds,
		func(opportunities []model.Opportunity) {
			onOpportunities(logger, audit, opportunities)
		},
	)

	return &Application{
		logger:  logger,
		store:   priceStore,
		manager: dataManager,
		scanner: arbScanner,
		audit:   audit,
	}, nil
}

func newAdapter(venue model.Venue, httpClient *httpfetch.Client) (session.Adapter, error) {
	switch venue {
	case model.Binance:
		return binance.New(httpClient), nil
	case model.Bybit:
		return bybit.New(httpClient), nil
	case model.Gateio:
		return gateio.New(httpClient), nil
	default:
		return nil, fmt.Errorf("unknown venue %q", venue)
	}
}

func onOpportunities(logger *zap.Logger, audit *jsonl.Writer, opportunities []model.Opportunity) {
	now := time.Now().UTC()
	for _, o := range opportunities {
		logger.Info("arbitrage opportunity",
			zap.String("symbol", string(o.Symbol)),
			zap.String("buy_venue", string(o.BuyVenue)),
			zap.Float64("buy_price", o.BuyPrice),
			zap.String("sell_venue", string(o.SellVenue)),
			zap.Float64("sell_price", o.SellPrice),
			zap.Float64("profit_percent", o.ProfitPercent),
		)
		if audit != nil {
			if err := audit.Write(output.NewOpportunityRecord(o, now)); err != nil {
				logger.Warn("failed to write opportunity to audit log", zap.Error(err))
			}
		}
	}
}

// Start launches every venue session and the arbitrage scanner.
func (a *Application) Start(ctx context.Context) error {
	if err := a.manager.Start(ctx); err != nil {
		return fmt.Errorf("start venue sessions: %w", err)
	}
	a.scanner.Start(ctx)
	return nil
}

// Stop stops the scanner first so no further scan reads a store that is
// about to stop receiving updates, then stops every venue session, then
// flushes and closes the audit log.
func (a *Application) Stop() error {
	a.scanner.Stop()
	if err := a.manager.Stop(); err != nil {
		return err
	}
	if a.audit != nil {
		return a.audit.Close()
	}
	return nil
}
