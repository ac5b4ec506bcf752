package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/grush1k033/club-management-sub000/internal/auth"
	"github.com/grush1k033/club-management-sub000/internal/club"
	"github.com/grush1k033/club-management-sub000/internal/config"
	"github.com/grush1k033/club-management-sub000/internal/email"
	"github.com/grush1k033/club-management-sub000/internal/event"
	"github.com/grush1k033/club-management-sub000/internal/ledger"
	"github.com/grush1k033/club-management-sub000/internal/membership"
	"github.com/grush1k033/club-management-sub000/internal/registration"
	"github.com/grush1k033/club-management-sub000/internal/user"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	userRepo := user.NewRepository(db)
	clubRepo := club.NewRepository(db)
	eventRepo := event.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	registrationRepo := registration.NewRepository(db)
	membershipRepo := membership.NewRepository(db)

	userSvc := user.NewService(userRepo, cfg.JWTSecret)
	ledgerSvc := ledger.NewService(ledgerRepo)
	registrationSvc := registration.NewService(registrationRepo, eventRepo, userRepo, emailService)
	membershipSvc := membership.NewService(membershipRepo, clubRepo, userRepo, emailService)

	userHandler := user.NewHandler(userSvc)
	clubHandler := club.NewHandler(clubRepo)
	eventHandler := event.NewHandler(eventRepo)
	ledgerHandler := ledger.NewHandler(ledgerSvc, eventRepo, clubRepo)
	registrationHandler := registration.NewHandler(registrationSvc)
	membershipHandler := membership.NewHandler(membershipSvc)

	public := router.Group("/auth")
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.Refresh)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.GET("/me/payments", ledgerHandler.ListMyPayments)
		protected.GET("/me/transactions", ledgerHandler.ListMyTransactions)
		protected.POST("/me/balance/topup", ledgerHandler.TopUp)
		protected.GET("/me/join-requests", membershipHandler.ListMyJoinRequests)

		protected.GET("/clubs", clubHandler.ListClubs)
		protected.GET("/clubs/:clubID", clubHandler.GetClub)
		protected.POST("/clubs/:clubID/join", membershipHandler.RequestToJoin)
		protected.DELETE("/clubs/:clubID/join", membershipHandler.CancelJoinRequest)
		protected.POST("/clubs/:clubID/join/pay", membershipHandler.PayJoiningFee)
		protected.POST("/clubs/:clubID/donate", ledgerHandler.Donate)

		protected.GET("/events", eventHandler.ListEvents)
		protected.GET("/events/:eventID", eventHandler.GetEvent)
		protected.POST("/events/:eventID/register", registrationHandler.RegisterForEvent)
		protected.POST("/events/:eventID/pay", ledgerHandler.PayForEvent)

		protected.GET("/registrations", registrationHandler.ListMyRegistrations)
		protected.POST("/registrations/:registrationID/cancel", registrationHandler.CancelRegistration)

		protected.GET("/payments/:paymentID", ledgerHandler.GetPayment)
	}

	adminMiddleware := auth.RequireRole("admin")
	admin := router.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.POST("/clubs", clubHandler.CreateClub)
		admin.GET("/clubs/:clubID/join-requests", membershipHandler.ListPendingByClub)
		admin.POST("/events", eventHandler.CreateEvent)
		admin.GET("/events/:eventID/participants", registrationHandler.ListEventParticipants)
		admin.POST("/registrations/:registrationID/attended", registrationHandler.MarkAttended)
		admin.POST("/payments/:paymentID/status", ledgerHandler.UpdatePaymentStatus)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
