package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/emergency-dispatch/internal/domain/dispatch"
	"github.com/oshokin/emergency-dispatch/internal/events"
	"github.com/oshokin/emergency-dispatch/internal/version"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	ReportEmergency(ctx context.Context, reporter string, report dispatch.EmergencyReport) (*dispatch.Emergency, error)
	AssignResponders(ctx context.Context, caller string, emergencyID uint64, responderIDs []string) (*dispatch.Emergency, error)
	AllocateResources(ctx context.Context, caller string, emergencyID, resourceID, quantity uint64) (*dispatch.Emergency, *dispatch.Resource, error)
	UpdateEmergencyStatus(ctx context.Context, caller string, emergencyID uint64, status dispatch.EmergencyStatus) (*dispatch.Emergency, error)
	RegisterResponder(ctx context.Context, caller string, registration dispatch.ResponderRegistration) (*dispatch.Responder, error)
	AddResource(ctx context.Context, caller, name string, quantity uint64, location string) (*dispatch.Resource, error)
	AuthorizePersonnel(ctx context.Context, caller, identity string) error
	IsAuthorized(ctx context.Context, identity string) bool
	Emergency(ctx context.Context, id uint64) (*dispatch.Emergency, error)
	Responder(ctx context.Context, identity string) *dispatch.Responder
	Resource(ctx context.Context, id uint64) (*dispatch.Resource, error)
	AssignedResponders(ctx context.Context, id uint64) ([]string, error)
	Events(ctx context.Context, limit int) []events.Event
	SubscribeEvents(ctx context.Context, buffer int) (<-chan events.Event, func())
}

// Config wires the server's dependencies and token settings.
type Config struct {
	// Service provides the business logic for dispatch operations.
	Service Service
	// JWTSecret signs and verifies bearer tokens.
	JWTSecret []byte
	// BootstrapSecret gates the token issuance endpoint; empty disables it.
	BootstrapSecret string
	// TokenTTL is the lifetime of issued bearer tokens.
	TokenTTL time.Duration
}

// Server implements the dispatch HTTP API.
type Server struct {
	// service provides the business logic for dispatch operations.
	service Service
	// jwtSecret signs and verifies bearer tokens.
	jwtSecret []byte
	// bootstrapSecret gates the token issuance endpoint.
	bootstrapSecret string
	// tokenTTL is the lifetime of issued bearer tokens.
	tokenTTL time.Duration
}

// NewServer wires the provided service implementation into an HTTP handler.
func NewServer(cfg Config) *Server {
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}

	return &Server{
		service:         cfg.Service,
		jwtSecret:       cfg.JWTSecret,
		bootstrapSecret: cfg.BootstrapSecret,
		tokenTTL:        tokenTTL,
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), accessLog())

	api := router.Group("/api")

	// Open endpoints: liveness, token issuance and read-only lookups.
	api.GET("/health", s.health)
	api.POST("/tokens", s.issueToken)
	api.GET("/emergencies/:id", s.getEmergency)
	api.GET("/emergencies/:id/responders", s.getAssignedResponders)
	api.GET("/responders/:id", s.getResponder)
	api.GET("/resources/:id", s.getResource)

	// Mutations and the event feed require an authenticated identity.
	authed := api.Group("", auth(s.jwtSecret))
	authed.POST("/emergencies", s.reportEmergency)
	authed.POST("/emergencies/:id/responders", s.assignResponders)
	authed.POST("/emergencies/:id/resources", s.allocateResources)
	authed.PUT("/emergencies/:id/status", s.updateEmergencyStatus)
	authed.POST("/responders", s.registerResponder)
	authed.POST("/resources", s.addResource)
	authed.POST("/personnel", s.authorizePersonnel)
	authed.GET("/events", s.listEvents)
	authed.GET("/events/stream", s.streamEvents)

	return router
}

// health reports liveness and build information.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Short(),
	})
}
