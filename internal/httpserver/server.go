package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"catalog/backend/internal/config"
	authdomain "catalog/backend/internal/domain/auth"
	"catalog/backend/internal/domain/page"
	productdomain "catalog/backend/internal/domain/product"
	categoryusecase "catalog/backend/internal/usecase/category"
	productusecase "catalog/backend/internal/usecase/product"
	userusecase "catalog/backend/internal/usecase/user"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ProductService is the product use case surface the transport needs.
type ProductService interface {
	FindAllPaged(ctx context.Context, req page.Request, filter productdomain.Filter) (page.Page[*productusecase.ProductDTO], error)
	FindByID(ctx context.Context, id int64) (*productusecase.ProductDTO, error)
	Insert(ctx context.Context, dto productusecase.ProductDTO) (*productusecase.ProductDTO, error)
	Update(ctx context.Context, id int64, dto productusecase.ProductDTO) (*productusecase.ProductDTO, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryService is the category use case surface the transport needs.
type CategoryService interface {
	FindAllPaged(ctx context.Context, req page.Request) (page.Page[*categoryusecase.CategoryDTO], error)
	FindByID(ctx context.Context, id int64) (*categoryusecase.CategoryDTO, error)
	Insert(ctx context.Context, dto categoryusecase.CategoryDTO) (*categoryusecase.CategoryDTO, error)
	Update(ctx context.Context, id int64, dto categoryusecase.CategoryDTO) (*categoryusecase.CategoryDTO, error)
	Delete(ctx context.Context, id int64) error
}

// UserService is the user administration surface.
type UserService interface {
	FindAllPaged(ctx context.Context, req page.Request) (page.Page[*userusecase.UserDTO], error)
	FindByID(ctx context.Context, id int64) (*userusecase.UserDTO, error)
	Insert(ctx context.Context, dto userusecase.UserInsertDTO) (*userusecase.UserDTO, error)
	Update(ctx context.Context, id int64, dto userusecase.UserDTO) (*userusecase.UserDTO, error)
	Delete(ctx context.Context, id int64) error
}

// AuthService issues and checks tokens.
type AuthService interface {
	Login(ctx context.Context, creds authdomain.Credentials) (string, *authdomain.User, error)
	VerifyToken(ctx context.Context, token string) (*authdomain.User, error)
	RenewToken(ctx context.Context, token string) (string, error)
}

// Dependencies groups what the handlers call into.
type Dependencies struct {
	Auth       AuthService
	Products   ProductService
	Categories CategoryService
	Users      UserService
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(context.Context) error
}

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer *http.Server
	router     chi.Router
	auth       AuthService
	products   ProductService
	categories CategoryService
	users      UserService
	metrics    http.Handler
	ready      func(context.Context) error
	validate   *validator.Validate
	logger     *zap.Logger
	addr       string
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, deps Dependencies, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	s := &Server{
		router:     chi.NewRouter(),
		auth:       deps.Auth,
		products:   deps.Products,
		categories: deps.Categories,
		users:      deps.Users,
		metrics:    deps.Metrics,
		ready:      deps.Ready,
		validate:   newValidator(time.Now),
		logger:     logger.Named("http"),
		addr:       addr,
	}
	s.registerRoutes(cfg.AllowedOrigins)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeoutSec) * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(allowedOrigins []string) {
	r := s.router
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.withLogging)
	r.Use(chimiddleware.Recoverer)
	r.Use(withCORS(allowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/renew", s.handleRenewToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		catalogWriters := requireAuthority(authdomain.RoleOperator, authdomain.RoleAdmin)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleListProducts)
			r.Get("/{id}", s.handleGetProduct)
			r.With(catalogWriters).Post("/", s.handleCreateProduct)
			r.With(catalogWriters).Put("/{id}", s.handleUpdateProduct)
			r.With(catalogWriters).Delete("/{id}", s.handleDeleteProduct)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Get("/{id}", s.handleGetCategory)
			r.With(catalogWriters).Post("/", s.handleCreateCategory)
			r.With(catalogWriters).Put("/{id}", s.handleUpdateCategory)
			r.With(catalogWriters).Delete("/{id}", s.handleDeleteCategory)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuthority(authdomain.RoleAdmin))
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Get("/{id}", s.handleGetUser)
			r.Put("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
		})
	})
}

// Handler returns the router wrapped with OTel HTTP instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			return []attribute.KeyValue{attribute.String("http.route", route)}
		}),
	)
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
