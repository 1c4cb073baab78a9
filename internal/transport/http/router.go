package http

import (
	"net/http"

	"github.com/cashflow-api/internal/application/activity"
	"github.com/cashflow-api/internal/application/contact"
	"github.com/cashflow-api/internal/application/dashboard"
	"github.com/cashflow-api/internal/application/password"
	"github.com/cashflow-api/internal/application/profile"
	"github.com/cashflow-api/internal/application/registration"
	"github.com/cashflow-api/internal/application/report"
	"github.com/cashflow-api/internal/application/session"
	"github.com/cashflow-api/internal/application/tag"
	"github.com/cashflow-api/internal/application/transaction"
	"github.com/cashflow-api/internal/config"
	"github.com/cashflow-api/internal/domain"
	jwtinfra "github.com/cashflow-api/internal/infrastructure/jwt"
	"github.com/cashflow-api/internal/infrastructure/smtp"
	"github.com/cashflow-api/internal/infrastructure/sns"
	"github.com/cashflow-api/internal/transport/http/handler"
	appmiddleware "github.com/cashflow-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     UserRepository
	SessionRepo  SessionRepository
	ActivityRepo ActivityRepository
	ContactRepo  ContactRepository
	TagRepo      TagRepository
	TxRepo       TransactionRepository
	ImageStore   ObjectStore
	Mailer       smtp.Mailer
	SMSSender    sns.SMSSender // nil unless OTP_SMS_ENABLED
	JWTProvider  *jwtinfra.Provider
	// BcryptCost overrides bcrypt.DefaultCost when non-zero.
	BcryptCost int
}

// NewRouter builds the application router. The returned RateLimiter must be
// stopped on shutdown.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, *appmiddleware.RateLimiter) {
	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(appmiddleware.ClientInfo)

	authRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	activitySvc := activity.NewService(activity.ServiceDeps{ActivityRepo: deps.ActivityRepo})
	registrationSvc := registration.NewService(registration.ServiceDeps{
		UserRepo:   deps.UserRepo,
		Cache:      registration.NewCache(),
		Mailer:     deps.Mailer,
		SMSSender:  deps.SMSSender,
		Activity:   activitySvc,
		OTPTTL:     cfg.OTPExpiry,
		ResendTTL:  cfg.OTPResendExpiry,
		BcryptCost: deps.BcryptCost,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:    deps.UserRepo,
		SessionRepo: deps.SessionRepo,
		JWTProvider: deps.JWTProvider,
		Activity:    activitySvc,
	})
	passwordSvc := password.NewService(password.ServiceDeps{
		UserRepo:    deps.UserRepo,
		JWTProvider: deps.JWTProvider,
		Mailer:      deps.Mailer,
		Activity:    activitySvc,
		ClientURL:   cfg.ClientURL,
		BcryptCost:  deps.BcryptCost,
	})
	profileSvc := profile.NewService(profile.ServiceDeps{
		UserRepo:    deps.UserRepo,
		ImageStore:  deps.ImageStore,
		Mailer:      deps.Mailer,
		Activity:    activitySvc,
		EmailOTPTTL: cfg.EmailOTPExpiry,
		BcryptCost:  deps.BcryptCost,
	})

	contactSvc := contact.NewService(contact.ServiceDeps{ContactRepo: deps.ContactRepo})
	tagSvc := tag.NewService(tag.ServiceDeps{TagRepo: deps.TagRepo})
	transactionSvc := transaction.NewService(transaction.ServiceDeps{
		TransactionRepo: deps.TxRepo,
		ContactRepo:     deps.ContactRepo,
	})
	dashboardSvc := dashboard.NewService(dashboard.ServiceDeps{Transactions: transactionSvc})
	reportSvc := report.NewService(report.ServiceDeps{Transactions: transactionSvc})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(registrationSvc, sessionSvc, passwordSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	profileH := handler.NewProfileHandler(profileSvc)
	activityH := handler.NewActivityHandler(activitySvc)
	customerH := handler.NewContactHandler(contactSvc, domain.KindCustomer)
	vendorH := handler.NewContactHandler(contactSvc, domain.KindVendor)
	tagH := handler.NewTagHandler(tagSvc)
	transactionH := handler.NewTransactionHandler(transactionSvc)
	dashboardH := handler.NewDashboardHandler(dashboardSvc)
	reportH := handler.NewReportHandler(reportSvc)

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.UserRepo)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthH.Check)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authRL.Limit)
				r.Post("/register", authH.Register)
				r.Post("/verify-email", authH.VerifyEmail)
				r.Post("/resend-otp", authH.ResendOTP)
				r.Post("/login", authH.Login)
				r.Post("/forgot-password", authH.ForgotPassword)
				r.Post("/reset-password", authH.ResetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(authMw)
				r.Get("/sessions", sessionH.List)
				r.Post("/sessions/{sessionId}/terminate", sessionH.Terminate)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authMw)
			r.Get("/profile", profileH.Get)
			r.Put("/profile", profileH.Update)
			r.Put("/profile/image", profileH.UploadImage)
			r.Put("/email", profileH.RequestEmailChange)
			r.Post("/email/verify", profileH.VerifyEmailChange)
		})

		r.With(authMw).Get("/activity/activity-logs", activityH.List)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			mountContacts(r, "/customers", customerH)
			mountContacts(r, "/vendors", vendorH)

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", tagH.List)
				r.Post("/", tagH.Create)
				r.Put("/{id}", tagH.Update)
				r.Delete("/{id}", tagH.Delete)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", transactionH.List)
				r.Post("/", transactionH.Create)
				r.Get("/summary", transactionH.Summary)
				r.Get("/{id}", transactionH.Get)
				r.Put("/{id}", transactionH.Update)
				r.Delete("/{id}", transactionH.Delete)
			})

			r.Get("/dashboard/stats", dashboardH.Stats)
			r.Get("/dashboard/transactions/recent", dashboardH.Recent)
			r.Get("/reports/{type}", reportH.Transactions)
		})
	})

	return r, authRL
}

func mountContacts(r chi.Router, path string, h *handler.ContactHandler) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}
