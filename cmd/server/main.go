package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "pos-platform/internal/adapters/web"
	"pos-platform/internal/ai"
	"pos-platform/internal/app"
	"pos-platform/internal/core"
	"pos-platform/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.Connect(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	userService := core.NewUserService(pool)
	productService := core.NewProductService(pool)
	orderService := core.NewOrderService(pool)
	stockService := core.NewStockService(pool)
	paymentService := core.NewPaymentService(pool, stockService, orderService)
	cashService := core.NewCashService(pool)
	reportingService := core.NewReportingService(pool)

	var agent *ai.Agent
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	} else {
		log.Println("Warning: OPENAI_API_KEY is not set — sales assistant disabled")
	}

	svc := app.NewAppService(userService, productService, orderService,
		paymentService, stockService, cashService, reportingService, agent)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
