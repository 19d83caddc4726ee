package server

import (
	"context"
	"net/http"
	"time"

	"github.com/dermalens/dermalens/internal/account"
	accountdomain "github.com/dermalens/dermalens/internal/account/domain"
	"github.com/dermalens/dermalens/internal/analytics"
	analyticsdomain "github.com/dermalens/dermalens/internal/analytics/domain"
	"github.com/dermalens/dermalens/internal/auth"
	"github.com/dermalens/dermalens/internal/config"
	"github.com/dermalens/dermalens/internal/observability"
	obsmiddleware "github.com/dermalens/dermalens/internal/observability/logger"
	obsmetrics "github.com/dermalens/dermalens/internal/observability/metrics"
	obstracing "github.com/dermalens/dermalens/internal/observability/tracing"
	"github.com/dermalens/dermalens/internal/opsmetrics"
	"github.com/dermalens/dermalens/internal/ratelimit"
	"github.com/dermalens/dermalens/internal/referral"
	referraldomain "github.com/dermalens/dermalens/internal/referral/domain"
	"github.com/dermalens/dermalens/internal/session"
	sessiondomain "github.com/dermalens/dermalens/internal/session/domain"
	"github.com/dermalens/dermalens/internal/session/liveevents"
	"github.com/dermalens/dermalens/internal/signup"
	signupdomain "github.com/dermalens/dermalens/internal/signup/domain"
	"github.com/dermalens/dermalens/internal/subscription"
	subscriptiondomain "github.com/dermalens/dermalens/internal/subscription/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	opsmetrics.Module,
	fx.Provide(registerGin),
	auth.Module,
	account.Module,
	subscription.Module,
	referral.Module,
	signup.Module,
	session.Module,
	analytics.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(log.Named("http"), obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger, obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	db              *gorm.DB
	verifier        *auth.Verifier
	accountSvc      accountdomain.Service
	subscriptionSvc subscriptiondomain.Service
	referralSvc     referraldomain.Service
	signupSvc       signupdomain.Service
	sessionSvc      sessiondomain.Service
	analyticsSvc    analyticsdomain.Service
	liveSessions    *liveevents.Hub
	sessionLimiter  *ratelimit.SessionLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Verifier        *auth.Verifier
	AccountSvc      accountdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	ReferralSvc     referraldomain.Service
	SignupSvc       signupdomain.Service
	SessionSvc      sessiondomain.Service
	AnalyticsSvc    analyticsdomain.Service
	LiveSessions    *liveevents.Hub            `optional:"true"`
	SessionLimiter  *ratelimit.SessionLimiter  `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		verifier:        p.Verifier,
		accountSvc:      p.AccountSvc,
		subscriptionSvc: p.SubscriptionSvc,
		referralSvc:     p.ReferralSvc,
		signupSvc:       p.SignupSvc,
		sessionSvc:      p.SessionSvc,
		analyticsSvc:    p.AnalyticsSvc,
		liveSessions:    p.LiveSessions,
		sessionLimiter:  p.SessionLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerReferralRoutes()
	svc.registerQuizRoutes()
	svc.registerSessionRoutes()
	svc.registerAdminRoutes()
	svc.registerTestRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	authGroup := s.engine.Group("/auth")

	authGroup.POST("/signup", s.Signup)
}

func (s *Server) registerReferralRoutes() {
	referrals := s.engine.Group("/referrals")

	referrals.POST("/create", s.AuthRequired(), s.CreateReferralCode)
	referrals.GET("/me", s.AuthRequired(), s.GetMyReferralCode)
	referrals.GET("/validate/:code", s.ValidateReferralCode)
}

func (s *Server) registerQuizRoutes() {
	s.engine.POST("/quiz/start", s.AuthRequired(), s.StartQuiz)

	subscriptionGroup := s.engine.Group("/subscription")
	subscriptionGroup.GET("/me", s.AuthRequired(), s.GetMySubscription)
	subscriptionGroup.POST("/purchase-attempts", s.AdminRequired(), s.PurchaseAttempts)
}

func (s *Server) registerSessionRoutes() {
	sessions := s.engine.Group("/sessions", s.SessionRateLimit())

	sessions.POST("/start", s.StartSession)
	sessions.POST("/ping", s.PingSession)
	sessions.POST("/view", s.RecordPageView)
	sessions.POST("/end", s.EndSession)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.AdminRequired())

	admin.GET("/analytics", s.GetAnalytics)
	admin.GET("/sessions/live-events", s.StreamSessionLiveEvents)
}

func (s *Server) registerTestRoutes() {
	if s.cfg.Environment != "production" {
		s.engine.POST("/api/test/cleanup", s.TestCleanup)
	}
}
