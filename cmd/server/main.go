package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	webAdapter "pos-ledger/internal/adapters/web"
	"pos-ledger/internal/app"
	"pos-ledger/internal/core"
	"pos-ledger/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
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

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	var allowedOrigins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if t := strings.TrimSpace(o); t != "" {
				allowedOrigins = append(allowedOrigins, t)
			}
		}
	}
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
