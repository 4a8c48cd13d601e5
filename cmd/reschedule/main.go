// Command reschedule reapplies the monthly due-date rule to the unpaid
// installments of one company, or of every company with -company all.
package main

import (
	"flag"

	"go-cashbook-api/internal/config"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/service"
	"go-cashbook-api/pkg/database"
	"go-cashbook-api/pkg/logger"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	companyFlag := flag.String("company", "", "company id, or \"all\"")
	dryRun := flag.Bool("dry-run", true, "report changes without writing them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	if *companyFlag == "" {
		log.Fatal().Msg("usage: reschedule -company <id|all> [-dry-run=false]")
	}

	db, err := database.ConnectPostgres(database.Options{DSN: cfg.DSN(), MaxOpenConns: 4}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}

	companyRepo := repository.NewCompanyRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	saleService := service.NewSaleService(
		repository.NewSaleRepo(db),
		repository.NewPurchaseRepo(db),
		txRepo,
		repository.NewCategoryRepo(db),
		repository.NewCustomerRepo(db),
		repository.NewSupplierRepo(db),
		db, nil, cfg.Location, log,
	)

	var companies []uuid.UUID
	if *companyFlag == "all" {
		all, err := companyRepo.FindAll()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to list companies")
		}
		for _, c := range all {
			companies = append(companies, c.ID)
		}
	} else {
		id, err := uuid.Parse(*companyFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid company id")
		}
		companies = append(companies, id)
	}

	failed := false
	for _, id := range companies {
		report, err := saleService.RepairSchedules(id, *dryRun)
		if err != nil {
			log.Error().Err(err).Str("company_id", id.String()).Msg("repair failed")
			failed = true
			continue
		}
		logReport(log, id, report, *dryRun)
	}
	if failed {
		log.Fatal().Msg("some companies were not repaired")
	}
}

func logReport(log zerolog.Logger, companyID uuid.UUID, report *service.RepairReport, dryRun bool) {
	for _, row := range report.Moved {
		log.Info().
			Str("company_id", companyID.String()).
			Interface("row", row).
			Msg("due date moved")
	}
	log.Info().
		Str("company_id", companyID.String()).
		Int("groups", report.Groups).
		Int("moved", len(report.Moved)).
		Int("skipped", report.Skipped).
		Bool("dry_run", dryRun).
		Msg("repair done")
}
