// Package server assembles the gin engine: global middleware, public auth routes and the
// authenticated, policy-checked /api surface.
package server

import (
	"net/http"
	"slices"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"civic-connect/backend/internal/audit"
	audithandler "civic-connect/backend/internal/audit/handler"
	auditrepo "civic-connect/backend/internal/audit/repository"
	complaintdomain "civic-connect/backend/internal/complaint/domain"
	complaintrepo "civic-connect/backend/internal/complaint/repository"
	connectdomain "civic-connect/backend/internal/connect/domain"
	connectrepo "civic-connect/backend/internal/connect/repository"
	dashboardhandler "civic-connect/backend/internal/dashboard/handler"
	dashboardrepo "civic-connect/backend/internal/dashboard/repository"
	"civic-connect/backend/internal/devotp"
	devotphandler "civic-connect/backend/internal/devotp/handler"
	eventdomain "civic-connect/backend/internal/event/domain"
	eventrepo "civic-connect/backend/internal/event/repository"
	healthhandler "civic-connect/backend/internal/health/handler"
	identityhandler "civic-connect/backend/internal/identity/handler"
	"civic-connect/backend/internal/logger"
	mediadomain "civic-connect/backend/internal/media/domain"
	mediarepo "civic-connect/backend/internal/media/repository"
	notificationhandler "civic-connect/backend/internal/notification/handler"
	notificationrepo "civic-connect/backend/internal/notification/repository"
	"civic-connect/backend/internal/platform/crud"
	"civic-connect/backend/internal/platform/rbac"
	"civic-connect/backend/internal/platform/response"
	"civic-connect/backend/internal/policy/engine"
	schemedomain "civic-connect/backend/internal/scheme/domain"
	schemerepo "civic-connect/backend/internal/scheme/repository"
	"civic-connect/backend/internal/security"
	"civic-connect/backend/internal/server/middleware"
	settinghandler "civic-connect/backend/internal/setting/handler"
	settingrepo "civic-connect/backend/internal/setting/repository"
	"civic-connect/backend/internal/telemetry"
	userhandler "civic-connect/backend/internal/user/handler"
	workdomain "civic-connect/backend/internal/work/domain"
	workrepo "civic-connect/backend/internal/work/repository"
)

const healthPath = "/health"

// Deps holds everything the router mounts. A nil repository or service leaves its routes unmounted,
// so they answer 404.
type Deps struct {
	Log *zap.Logger
	// Debug adds error detail to 5xx responses (development only).
	Debug       bool
	CORSOrigins []string

	Tokens      *security.TokenProvider
	Users       middleware.UserLookup
	Authz       engine.Authorizer
	RateLimiter *middleware.RateLimiter
	Emitter     telemetry.EventEmitter
	AuditLogger audit.AuditLogger

	Auth          identityhandler.AuthService
	UserService   userhandler.Service
	Complaints    crud.Repository[complaintdomain.Complaint, complaintdomain.CreateInput, complaintdomain.UpdateInput]
	Works         crud.Repository[workdomain.Work, workdomain.CreateInput, workdomain.UpdateInput]
	Events        crud.Repository[eventdomain.Event, eventdomain.CreateInput, eventdomain.UpdateInput]
	Media         crud.Repository[mediadomain.Media, mediadomain.CreateInput, mediadomain.UpdateInput]
	Schemes       crud.Repository[schemedomain.Scheme, schemedomain.CreateInput, schemedomain.UpdateInput]
	Queries       crud.Repository[connectdomain.Query, connectdomain.CreateInput, connectdomain.UpdateInput]
	Notifications notificationrepo.Repository
	Settings      settingrepo.Repository
	Dashboard     dashboardrepo.Repository
	AuditRepo     auditrepo.Repository

	HealthDB     healthhandler.Pinger
	HealthCache  healthhandler.Pinger
	HealthPolicy healthhandler.PolicyChecker

	// DevOTP serves GET /dev/otp when set. Only set outside production with dev OTP enabled.
	DevOTP devotp.Store
}

// NewRouter returns the configured engine. Tokens, Users and Authz are required whenever any
// authenticated route is mounted.
func NewRouter(deps Deps) *gin.Engine {
	log := logger.OrNop(deps.Log)

	r := gin.New()
	r.Use(
		response.Recovery(log, deps.Debug),
		sentrygin.New(sentrygin.Options{Repanic: true}),
		cors.New(corsConfig(deps.CORSOrigins)),
		response.ErrorHandler(log, deps.Debug),
		middleware.RequestContext(),
		middleware.RequestLogger(log),
		middleware.Telemetry(deps.Emitter, log, healthPath),
	)
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.Middleware())
	}
	r.NoRoute(response.NoRoute)

	healthhandler.NewHandler(deps.HealthDB, deps.HealthCache, deps.HealthPolicy).Register(r)
	if deps.DevOTP != nil {
		devotphandler.NewHandler(deps.DevOTP).Register(r)
	}

	api := r.Group("/api")

	var identity *identityhandler.Handler
	if deps.Auth != nil {
		identity = identityhandler.NewHandler(deps.Auth)
		identity.RegisterPublic(api.Group("/auth"))
	}

	protected := api.Group("")
	protected.Use(
		middleware.Auth(deps.Tokens, deps.Users),
		rbac.Authorize(deps.Authz, log),
	)
	if deps.AuditLogger != nil {
		protected.Use(middleware.Audit(deps.AuditLogger))
	}

	if identity != nil {
		identity.RegisterProtected(protected.Group("/auth"))
	}
	if deps.UserService != nil {
		userhandler.NewHandler(deps.UserService).Register(protected.Group("/users"))
	}
	if deps.Dashboard != nil {
		dashboardhandler.NewHandler(deps.Dashboard).Register(protected.Group("/dashboard"))
	}
	if deps.Complaints != nil {
		crud.NewHandler(deps.Complaints, complaintrepo.ListSpec, "Complaint").Register(protected.Group("/complaints"))
	}
	if deps.Works != nil {
		crud.NewHandler(deps.Works, workrepo.ListSpec, "Development work").Register(protected.Group("/development-works"))
	}
	if deps.Events != nil {
		crud.NewHandler(deps.Events, eventrepo.ListSpec, "Event").Register(protected.Group("/events"))
	}
	if deps.Media != nil {
		crud.NewHandler(deps.Media, mediarepo.ListSpec, "Media").Register(protected.Group("/media"))
	}
	if deps.Schemes != nil {
		crud.NewHandler(deps.Schemes, schemerepo.ListSpec, "Scheme").Register(protected.Group("/schemes"))
	}
	if deps.Queries != nil {
		crud.NewHandler(deps.Queries, connectrepo.ListSpec, "Query").Register(protected.Group("/mla-connect"))
	}
	if deps.Notifications != nil {
		notificationhandler.NewHandler(deps.Notifications).Register(protected.Group("/notifications"))
	}
	if deps.Settings != nil {
		settinghandler.NewHandler(deps.Settings).Register(protected.Group("/settings"))
	}
	if deps.AuditRepo != nil {
		audithandler.NewHandler(deps.AuditRepo).Register(protected)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{middleware.RateLimitHeader, middleware.RateLimitRemainingHeader, middleware.RateLimitResetHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
