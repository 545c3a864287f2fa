package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matthewbaird/portfolio/internal/config"
	"github.com/matthewbaird/portfolio/internal/costs"
	"github.com/matthewbaird/portfolio/internal/dashboard"
	"github.com/matthewbaird/portfolio/internal/logger"
	"github.com/matthewbaird/portfolio/internal/revenue"
	"github.com/matthewbaird/portfolio/internal/scoring"
	"github.com/matthewbaird/portfolio/internal/store"

	_ "modernc.org/sqlite"
)

// app holds the process-wide resources shared by every command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sql.DB
	svc    *dashboard.Service
}

// newApp loads configuration, opens the store and builds the facade.
func newApp(ctx context.Context, cmd *cobra.Command, createTables bool) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Logger())
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a := &app{cfg: cfg, logger: log}

	var st store.Store
	if fixtures, _ := cmd.Flags().GetString("fixtures"); fixtures != "" {
		st, err = loadFixtures(fixtures)
		if err != nil {
			return nil, err
		}
		log.Info("serving fixtures from memory", zap.String("path", fixtures))
	} else {
		sqlStore, err := a.openDatabase(ctx, createTables)
		if err != nil {
			return nil, err
		}
		st = sqlStore
	}

	accrual, err := revenue.AccrualByName(cfg.Engine.Accrual)
	if err != nil {
		a.close()
		return nil, err
	}
	a.svc = dashboard.NewService(st,
		dashboard.WithLogger(log),
		dashboard.WithEngine(revenue.NewEngine(revenue.WithAccrual(accrual), revenue.WithLogger(log))),
		dashboard.WithEstimator(costs.FlatRate{
			PerRequest:      decimal.NewFromFloat(cfg.Engine.ServiceCostPerRequest),
			PerOccupiedUnit: decimal.NewFromFloat(cfg.Engine.UtilityCostPerUnit),
		}),
		dashboard.WithScorer(scoring.NewScorer(decimal.NewFromFloat(cfg.Engine.FallbackUnitRent))),
		dashboard.WithQueryTimeout(cfg.Engine.QueryTimeout),
		dashboard.WithPaymentConcurrency(cfg.Engine.PaymentConcurrency),
		dashboard.WithEndingSoonDays(cfg.Engine.EndingSoonDays),
	)
	return a, nil
}

func (a *app) openDatabase(ctx context.Context, createTables bool) (*store.SQLStore, error) {
	db, err := sql.Open("sqlite", a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(a.cfg.Database.MaxOpenConns)
	a.db = db

	st := store.NewSQLStore(db)
	if createTables {
		if err := st.CreateTables(ctx); err != nil {
			a.close()
			return nil, fmt.Errorf("creating tables: %w", err)
		}
		a.logger.Info("tables created")
	}
	return st, nil
}

func loadFixtures(path string) (*store.MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixtures: %w", err)
	}
	defer f.Close()
	snap, err := store.DecodeSnapshot(f)
	if err != nil {
		return nil, err
	}
	return store.NewMemoryStore(snap), nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
