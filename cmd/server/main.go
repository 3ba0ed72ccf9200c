package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	_ "github.com/joho/godotenv/autoload" // load .env before config reads the environment

	"github.com/ecocivic/civicledger/internal/config"
	"github.com/ecocivic/civicledger/internal/database"
	"github.com/ecocivic/civicledger/internal/handler"
	"github.com/ecocivic/civicledger/internal/queue"
	"github.com/ecocivic/civicledger/internal/repository"
	"github.com/ecocivic/civicledger/internal/router"
	"github.com/ecocivic/civicledger/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	// Stores.
	accounts := repository.NewAccountRepo(db)
	readings := repository.NewReadingRepo(db)
	inspections := repository.NewInspectionRepo(db)
	tokens := repository.NewTokenRepo(db)
	debts := repository.NewDebtRepo(db)
	caps := repository.NewCapabilityRepo(db)
	users := repository.NewUserRepo(db)

	// Audit trail: fire-and-forget publisher plus a background
	// consumer that appends the events to logs/audit.log.
	audit := queue.NewAuditPublisher()
	go func() {
		if err := queue.StartAuditConsumer(); err != nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()

	// Services share one per-account lock table so ledger, gate,
	// fraud and recycling serialize on the same identity.
	locks := service.NewAccountLocks()
	policy := service.Policy{
		DropThresholdPercent: cfg.DropThresholdPercent,
		PartialSlashPercent:  cfg.PartialSlashPercent,
		InterestRatePercent:  cfg.InterestRatePercent,
		MonthsLate:           cfg.MonthsLate,
		UnitRate:             cfg.UnitRate,
		TokenTTL:             cfg.TokenTTL,
		InspectionCycle:      cfg.InspectionCycle,
		ReadingRewardNumer:   cfg.ReadingRewardNumer,
		ReadingRewardDenom:   cfg.ReadingRewardDenom,
	}

	registry := service.NewRegistry(caps, audit)
	ledger := service.NewLedger(accounts, locks, registry, audit)
	gate := service.NewGate(accounts, readings, ledger, registry, locks, policy, audit)
	fraud := service.NewFraud(accounts, debts, ledger, registry, locks, policy, audit)
	insp := service.NewInspections(accounts, inspections, caps, fraud, registry, locks, policy, audit, nil)
	recycling := service.NewRecycling(accounts, tokens, ledger, registry, locks, policy, audit, nil)

	// Bootstrap the administrator capability so the first admin can
	// log in and grant everything else.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := registry.Seed(ctx, cfg.AdminIdentity); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	cancel()

	e := echo.New()
	router.RegisterAll(e, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg, users, caps),
		Account:    handler.NewAccountHandler(ledger, fraud, accounts),
		Reading:    handler.NewReadingHandler(gate),
		Recycling:  handler.NewRecyclingHandler(recycling),
		Inspection: handler.NewInspectionHandler(insp),
		Admin:      handler.NewAdminHandler(registry, ledger, fraud, insp, recycling),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
