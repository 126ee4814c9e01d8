package main

import (
	"context"
	"log"
	"os"

	cliAdapter "pos-ledger/internal/adapters/cli"
	"pos-ledger/internal/app"
	"pos-ledger/internal/core"
	"pos-ledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("Usage: app <simulate|pay|debtors|verify> [args]")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	inventoryService := core.NewInventoryService(pool)
	svc := app.NewAppService(
		pool,
		core.NewCustomerService(pool),
		core.NewProductService(pool),
		core.NewSaleService(pool, inventoryService),
		core.NewPaymentService(pool),
		inventoryService,
		core.NewReportingService(pool),
		core.NewDebtService(pool),
		core.NewUserService(pool),
	)

	cliAdapter.Run(ctx, svc, os.Args[1:])
}
