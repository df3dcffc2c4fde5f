// internal/api/server.go

// Package api exposes the onboarding wizard over HTTP for the browser
// client. All wizard semantics live in internal/wizard; this layer only
// translates requests, errors, and status codes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"

	"receptionist-onboarding/internal/collaborators/gcal"
	"receptionist-onboarding/internal/collaborators/identity"
	"receptionist-onboarding/internal/common/logger"
	"receptionist-onboarding/internal/models"
	"receptionist-onboarding/internal/wizard"
)

// BusinessDirectory is the business-search collaborator surface the API
// needs. Implemented by places.Client.
type BusinessDirectory interface {
	Search(ctx context.Context, query string) ([]models.BusinessCandidate, error)
	Details(ctx context.Context, placeID string) (*models.BusinessRecord, error)
}

// WebhookVerifier checks identity-provider webhook signatures. Implemented
// by identity.ClerkClient.
type WebhookVerifier interface {
	VerifyWebhook(body []byte, msgID, timestamp, signature string) (*identity.WebhookEvent, error)
}

// CalendarConnector exposes the calendar OAuth hand-off and the calendar
// operations offered once a token exists. Implemented by gcal.Connector.
type CalendarConnector interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FreeWindows(ctx context.Context, token *oauth2.Token, from, to time.Time) ([]gcal.Availability, error)
	ListEvents(ctx context.Context, token *oauth2.Token, from, to time.Time) ([]gcal.Event, error)
	BookAppointment(ctx context.Context, token *oauth2.Token, summary, description string, start, end time.Time) (string, error)
}

// CalendarTokenStore keeps exchanged tokens per wizard session. Implemented
// by gcal.RedisTokenStore.
type CalendarTokenStore interface {
	SaveToken(ctx context.Context, sessionID string, token *oauth2.Token) error
	LoadToken(ctx context.Context, sessionID string) (*oauth2.Token, error)
}

type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	controller *wizard.Controller
	directory  BusinessDirectory
	verifier   WebhookVerifier
	calendar   CalendarConnector
	calTokens  CalendarTokenStore
	logger     logger.Logger
}

type ServerOption func(*Server)

func WithDirectory(d BusinessDirectory) ServerOption {
	return func(s *Server) { s.directory = d }
}

func WithWebhookVerifier(v WebhookVerifier) ServerOption {
	return func(s *Server) { s.verifier = v }
}

func WithCalendarConnector(c CalendarConnector) ServerOption {
	return func(s *Server) { s.calendar = c }
}

func WithCalendarTokens(ts CalendarTokenStore) ServerOption {
	return func(s *Server) { s.calTokens = ts }
}

func NewServer(addr string, controller *wizard.Controller, log logger.Logger, opts ...ServerOption) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	s := &Server{
		engine:     engine,
		controller: controller,
		logger:     log.WithFields(map[string]interface{}{"component": "api-server"}),
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/sessions", s.handleStartSession)
		v1.GET("/sessions/:id", s.handleGetSession)
		v1.GET("/sessions/:id/sequence", s.handleGetSequence)
		v1.POST("/sessions/:id/actions", s.handleDispatchAction)
		v1.POST("/sessions/:id/complete-step", s.handleCompleteStep)

		v1.GET("/business/search", s.handleBusinessSearch)
		v1.GET("/business/:placeId", s.handleBusinessDetails)

		v1.GET("/categories", s.handleCategories)
		v1.GET("/calendar/connect", s.handleCalendarConnect)
		v1.GET("/calendar/callback", s.handleCalendarCallback)
		v1.GET("/calendar/events", s.handleCalendarEvents)
		v1.POST("/calendar/events", s.handleCalendarBook)
		v1.GET("/calendar/free-busy", s.handleCalendarFreeBusy)

		v1.POST("/webhooks/identity", s.handleIdentityWebhook)
	}
}

// Engine is exposed for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Run() error {
	s.logger.Info("api server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
