package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/partnerbooking/config"
	"github.com/Domenick1991/partnerbooking/internal/bootstrap"
	"github.com/Domenick1991/partnerbooking/internal/cache"
	"github.com/Domenick1991/partnerbooking/internal/identifier"
	"github.com/Domenick1991/partnerbooking/internal/invoice"
	"github.com/Domenick1991/partnerbooking/internal/kafka"
	"github.com/Domenick1991/partnerbooking/internal/notification"
	"github.com/Domenick1991/partnerbooking/internal/recorder"
	"github.com/Domenick1991/partnerbooking/internal/repository"
	"github.com/Domenick1991/partnerbooking/internal/service/audit"
	"github.com/Domenick1991/partnerbooking/internal/service/booking"
	"github.com/Domenick1991/partnerbooking/internal/service/catalog"
	"github.com/Domenick1991/partnerbooking/internal/service/verification"
	"github.com/Domenick1991/partnerbooking/internal/storage"
	"github.com/Domenick1991/partnerbooking/pkg/logger"
	"github.com/Domenick1991/partnerbooking/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.NewLogger("info").Fatal("load config", "error", err)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("connect postgres", "error", err)
	}
	defer pool.Close()

	catalogDB, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("open catalog database", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("partnerbooking", reg)

	files, err := storage.NewLocalStore(cfg.Storage.Root, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal("init file storage", "error", err)
	}

	auditRepo, closeAudit := auditRepository(ctx, cfg, pool, log)
	defer closeAudit()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Catalog.CacheTTL())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		log.Warn("kafka unavailable, primary channel will fail until it recovers", "error", err)
	}

	var secondary notification.Channel
	if cfg.WhatsApp.Enabled() {
		secondary = notification.NewWhatsAppChannel(ctx, notification.WhatsAppConfig{
			BaseURL:   cfg.WhatsApp.BaseURL,
			Token:     cfg.WhatsApp.Token,
			CompanyID: cfg.WhatsApp.CompanyID,
			AgentID:   cfg.WhatsApp.AgentID,
		}, log)
	}
	dispatcher := notification.NewDispatcher(
		notification.NewKafkaChannel(producer, cfg.Kafka.NotificationsTopic),
		secondary,
		cfg.Notifications.ChannelTimeout(),
		log,
		m,
	)

	tx := repository.NewTransactor(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	verificationRepo := repository.NewVerificationRepository(pool)
	catalogService := catalog.NewService(repository.NewCatalogRepository(catalogDB), redisCache, log)

	bookingService := booking.NewBookingService(
		tx,
		bookingRepo,
		verificationRepo,
		catalogService,
		identifier.NewGenerator(),
		recorder.NewBookingLedger(bookingRepo),
		invoice.NewTextRenderer(files),
		files,
		dispatcher,
		booking.Config{
			ReferencePrefix:       cfg.Booking.ReferencePrefix,
			MaxIdentifierAttempts: cfg.Booking.MaxIdentifierAttempts,
			MaxProofSize:          cfg.Booking.MaxProofSizeBytes,
			AllowedProofTypes:     cfg.Booking.AllowedProofTypes,
			AdminContact: notification.Recipient{
				Name:  cfg.Notifications.AdminName,
				Email: cfg.Notifications.AdminEmail,
				Phone: cfg.Notifications.AdminPhone,
			},
		},
		booking.WithLogger(log),
		booking.WithMetrics(m),
	)

	verificationService := verification.NewVerificationService(
		tx,
		verificationRepo,
		recorder.NewAuditLog(auditRepo),
		files,
		dispatcher,
		verification.WithLogger(log),
		verification.WithMetrics(m),
		verification.WithMaxFileSize(cfg.Storage.MaxFileMiB<<20),
	)

	err = bootstrap.Run(ctx, cfg, bootstrap.Services{
		Bookings:      bookingService,
		Verifications: verificationService,
		Audit:         audit.NewService(auditRepo),
		Catalog:       catalogService,
		Gatherer:      reg,
		Health:        pool.Ping,
	}, log)
	if err != nil {
		log.Error("server error", "error", err)
		return
	}
	log.Info("server stopped")
}

// auditRepository selects the audit log backend. Mongo writes happen outside the Postgres transaction.
func auditRepository(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, log logger.Logger) (repository.AuditLogRepository, func()) {
	if cfg.Audit.Backend != config.AuditBackendMongo {
		return repository.NewAuditLogRepository(pool), func() {}
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal("connect mongo", "error", err)
	}
	repo, err := repository.NewMongoAuditLogRepository(ctx, client.Database(cfg.Mongo.Database))
	if err != nil {
		log.Fatal("init mongo audit log", "error", err)
	}
	return repo, func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn("disconnect mongo", "error", err)
		}
	}
}
