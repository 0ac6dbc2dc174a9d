package main

import (
	"context"

	"github.com/julienschmidt/httprouter"

	"turnolibre/internal/availability"
	bookinghandler "turnolibre/internal/bookings/handler"
	bookingrepo "turnolibre/internal/bookings/repository"
	bookingservice "turnolibre/internal/bookings/service"
	bookingvalidator "turnolibre/internal/bookings/validator"
	clubhandler "turnolibre/internal/clubs/handler"
	clubrepo "turnolibre/internal/clubs/repository"
	clubservice "turnolibre/internal/clubs/service"
	clubvalidator "turnolibre/internal/clubs/validator"
	courthandler "turnolibre/internal/courts/handler"
	courtrepo "turnolibre/internal/courts/repository"
	courtservice "turnolibre/internal/courts/service"
	courtvalidator "turnolibre/internal/courts/validator"
	holdhandler "turnolibre/internal/holds/handler"
	holdrepo "turnolibre/internal/holds/repository"
	holdservice "turnolibre/internal/holds/service"
	holdvalidator "turnolibre/internal/holds/validator"
	paymenthandler "turnolibre/internal/payments/handler"
	paymentrepo "turnolibre/internal/payments/repository"
	paymentservice "turnolibre/internal/payments/service"
	"turnolibre/internal/sweeper"
	userhandler "turnolibre/internal/users/handler"
	userrepo "turnolibre/internal/users/repository"
	userservice "turnolibre/internal/users/service"
	uservalidator "turnolibre/internal/users/validator"
	"turnolibre/pkg/app"
	"turnolibre/pkg/client"
	"turnolibre/pkg/clock"
	"turnolibre/pkg/config"
	"turnolibre/pkg/contracts"
	"turnolibre/pkg/kafka"
	"turnolibre/pkg/model"
	"turnolibre/pkg/sealer"
)

const ServiceName = "api"

// apiHandler registers every domain handler on the shared router.
type apiHandler struct {
	handlers []contracts.Handler
}

func (h *apiHandler) RegisterRoutes(router *httprouter.Router) {
	for _, handler := range h.handlers {
		handler.RegisterRoutes(router)
	}
}

// holdSourceRef breaks the bookings<->holds construction cycle: bookings
// needs pending holds for the user view, holds needs bookings to promote a
// confirmed hold. The reference is bound after both services exist.
type holdSourceRef struct {
	svc holdservice.HoldService
}

func (r *holdSourceRef) PendingByEmail(ctx context.Context, email string) ([]*model.Hold, error) {
	return r.svc.PendingByEmail(ctx, email)
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting TurnoLibre API")

	if cfg.CredentialSealKey == "" {
		cfg.Log.Fatal("CREDENTIAL_SEAL_KEY must be configured")
	}
	credentialSealer, err := sealer.New(cfg.CredentialSealKey)
	if err != nil {
		cfg.Log.Fatal("Invalid credential seal key", "error", err)
	}

	var publisher kafka.Publisher = kafka.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		publisher = producer
	}

	mercadopago := client.NewMercadoPago(cfg.MPBaseURL)
	mailer := client.NewMailer(client.MailerConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, cfg.Log)
	clk := clock.System()

	courtRepository := courtrepo.NewMongoCourtRepository(cfg)
	clubRepository := clubrepo.NewMongoClubRepository(cfg)
	userRepository := userrepo.NewMongoUserRepository(cfg)
	holdRepository := holdrepo.NewMongoHoldRepository(cfg)
	bookingRepository := bookingrepo.NewMongoBookingRepository(cfg)
	paymentEventRepository := paymentrepo.NewMongoPaymentEventRepository(cfg)

	courtService := courtservice.NewCourtService(
		courtRepository,
		courtvalidator.NewCourtValidator(cfg.Log),
		cfg,
	)
	clubService := clubservice.NewClubService(
		clubRepository,
		mercadopago,
		credentialSealer,
		clubvalidator.NewClubValidator(cfg.Log),
		cfg,
		clk,
	)
	userService := userservice.NewUserService(
		userRepository,
		uservalidator.NewUserValidator(cfg.Log),
		cfg,
	)

	pendingHolds := &holdSourceRef{}
	bookingService := bookingservice.NewBookingService(
		bookingRepository,
		courtService,
		clubService,
		userService,
		pendingHolds,
		mercadopago,
		credentialSealer,
		publisher,
		bookingvalidator.NewBookingValidator(cfg.Log),
		cfg,
		clk,
	)
	holdService := holdservice.NewHoldService(
		holdRepository,
		courtService,
		bookingService,
		mailer,
		holdvalidator.NewHoldValidator(cfg.Log),
		cfg,
		clk,
	)
	pendingHolds.svc = holdService

	paymentService := paymentservice.NewPaymentService(
		paymentEventRepository,
		mercadopago,
		bookingService,
		clubService,
		credentialSealer,
		publisher,
		cfg,
		clk,
	)
	availabilityService := availability.NewAvailabilityService(
		courtRepository,
		bookingRepository,
		clubRepository,
		cfg,
		clk,
	)

	sweep, err := sweeper.New(holdService, clubService, cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to create sweeper", "error", err)
	}
	if err := sweep.Start(); err != nil {
		cfg.Log.Fatal("Failed to start sweeper", "error", err)
	}

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(&apiHandler{handlers: []contracts.Handler{
		courthandler.NewCourtHandler(courtService, cfg.Log),
		clubhandler.NewClubHandler(clubService, cfg.Log),
		userhandler.NewUserHandler(userService, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
		holdhandler.NewHoldHandler(holdService, cfg.Log),
		paymenthandler.NewWebhookHandler(paymentService, cfg.Log),
		availability.NewAvailabilityHandler(availabilityService, cfg.Log),
	}})
	serverApp.OnShutdown("sweeper", sweep.Stop)
	serverApp.OnShutdown("kafka-producer", publisher.Close)
	serverApp.Run()
}
