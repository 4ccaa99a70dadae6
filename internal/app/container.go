package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/api"
	"github.com/nekogravitycat/consult-booking-backend/internal/auth"
	"github.com/nekogravitycat/consult-booking-backend/internal/booking"
	"github.com/nekogravitycat/consult-booking-backend/internal/notify"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	Logger       *zap.Logger

	// DBPool backs the booking store. Nil selects the in-memory store.
	DBPool     *pgxpool.Pool
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	AdminEmail        string
	AdminPasswordHash string

	Booking booking.Config
	Notify  notify.Config
	Gateway notify.Gateway

	RateLimiter gin.HandlerFunc
	Gatherer    prometheus.Gatherer
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router         *gin.Engine
	JWTManager     *auth.JWTManager
	BookingService booking.Service
	Dispatcher     *notify.Dispatcher
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	staffAuth := auth.NewStaffAuthenticator(cfg.AdminEmail, cfg.AdminPasswordHash, passwordHasher)

	// Notification Module
	gateway := cfg.Gateway
	if gateway == nil {
		gateway = notify.NewLogGateway(logger.Named("mail"))
	}
	dispatcher := notify.NewDispatcher(gateway, cfg.Notify, logger.Named("notify"))

	// Booking Module
	var bookingRepo booking.Repository
	var ready func(ctx context.Context) error
	if cfg.DBPool != nil {
		bookingRepo = booking.NewPgxRepository(cfg.DBPool)
		ready = cfg.DBPool.Ping
	} else {
		logger.Warn("no database configured, bookings are kept in memory")
		bookingRepo = booking.NewMemoryRepository()
	}
	bookingService := booking.NewService(bookingRepo, dispatcher, cfg.Booking, logger.Named("booking"))

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		Logger:         logger.Named("http"),
		BookingService: bookingService,
		StaffAuth:      staffAuth,
		JWTManager:     jwtManager,
		RateLimiter:    cfg.RateLimiter,
		Gatherer:       cfg.Gatherer,
		Ready:          ready,
	})

	return &Container{
		Router:         router,
		JWTManager:     jwtManager,
		BookingService: bookingService,
		Dispatcher:     dispatcher,
	}
}
