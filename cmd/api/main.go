package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/facturalia/facturas-api/internal/application/auth"
	"github.com/facturalia/facturas-api/internal/application/billing"
	"github.com/facturalia/facturas-api/internal/application/company"
	"github.com/facturalia/facturas-api/internal/application/ledger"
	"github.com/facturalia/facturas-api/internal/infrastructure/export"
	infrafacturae "github.com/facturalia/facturas-api/internal/infrastructure/facturae"
	infrapdf "github.com/facturalia/facturas-api/internal/infrastructure/pdf"
	"github.com/facturalia/facturas-api/internal/infrastructure/postgres"
	httpRouter "github.com/facturalia/facturas-api/internal/interfaces/http"
	"github.com/facturalia/facturas-api/pkg/config"
	"github.com/facturalia/facturas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	quoteRepo := postgres.NewQuoteRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Certificado Facturae — sin ruta configurada se generan XML sin firma.
	cert, err := infrafacturae.LoadCertificate(cfg.Facturae)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar certificado Facturae")
	}
	signEnabled := cfg.Facturae.CertPath != ""
	facturaeSvc := infrafacturae.NewService(cert)
	if !signEnabled {
		log.Warn().Msg("sin certificado Facturae: los XML se generan sin firmar")
	}

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	csvExporter := export.NewCSVExporter()

	sessionUC := billing.NewSessionUseCase()
	invoiceUC := billing.NewInvoiceUseCase(txRunner, invoiceRepo, clientRepo, sessionUC)
	quoteUC := billing.NewQuoteUseCase(txRunner, quoteRepo, clientRepo)
	clientUC := billing.NewClientUseCase(clientRepo)
	pdfUC := billing.NewPDFUseCase(invoiceRepo, companyRepo, clientRepo, pdfGenerator)
	facturaeUC := billing.NewFacturaeUseCase(invoiceRepo, companyRepo, clientRepo, facturaeSvc, signEnabled)

	companyUC := company.NewUseCase(companyRepo)
	transactionUC := ledger.NewTransactionUseCase(transactionRepo)
	libroUC := ledger.NewLibroUseCase(invoiceRepo, transactionRepo, companyRepo, csvExporter, pdfGenerator)

	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturalia API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		CompanyUC:  companyUC,
		ClientUC:   clientUC,
		InvoiceUC:  invoiceUC,
		SessionUC:  sessionUC,
		QuoteUC:    quoteUC,
		PDFUC:      pdfUC,
		FacturaeUC: facturaeUC,
		TxUC:       transactionUC,
		LibroUC:    libroUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
