// internal/api/handlers.go
package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	apperrors "receptionist-onboarding/internal/common/errors"
	"receptionist-onboarding/internal/models"
	"receptionist-onboarding/internal/wizard"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type startSessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req startSessionRequest
	// An empty body starts a brand-new session.
	_ = c.ShouldBindJSON(&req)

	id, state := s.controller.StartSession(c.Request.Context(), req.SessionID)
	c.JSON(http.StatusCreated, gin.H{
		"sessionId": id,
		"state":     state,
	})
}

func (s *Server) handleGetSession(c *gin.Context) {
	state, err := s.controller.Get(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *Server) handleGetSequence(c *gin.Context) {
	seq, err := s.controller.Sequence(c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sequence": seq})
}

func (s *Server) handleDispatchAction(c *gin.Context) {
	var action wizard.Action
	if err := c.ShouldBindJSON(&action); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed action: " + err.Error()})
		return
	}

	state, err := s.controller.Dispatch(c.Request.Context(), c.Param("id"), action)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *Server) handleCompleteStep(c *gin.Context) {
	state, err := s.controller.CompleteStep(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (s *Server) handleBusinessSearch(c *gin.Context) {
	if s.directory == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "business search not configured"})
		return
	}

	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	candidates, err := s.directory.Search(c.Request.Context(), query)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": candidates})
}

func (s *Server) handleBusinessDetails(c *gin.Context) {
	if s.directory == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "business search not configured"})
		return
	}

	record, err := s.directory.Details(c.Request.Context(), c.Param("placeId"))
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": record})
}

func (s *Server) handleCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": models.Categories()})
}

func (s *Server) handleCalendarConnect(c *gin.Context) {
	if s.calendar == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "calendar connection not configured"})
		return
	}

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId parameter is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authUrl": s.calendar.AuthURL(sessionID)})
}

// handleCalendarCallback finishes the OAuth hand-off: the state parameter
// carries the wizard session, the code is exchanged and the token stored
// against it.
func (s *Server) handleCalendarCallback(c *gin.Context) {
	if s.calendar == nil || s.calTokens == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "calendar connection not configured"})
		return
	}

	sessionID := c.Query("state")
	code := c.Query("code")
	if sessionID == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state and code parameters are required"})
		return
	}

	token, err := s.calendar.Exchange(c.Request.Context(), code)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if err := s.calTokens.SaveToken(c.Request.Context(), sessionID, token); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected", "sessionId": sessionID})
}

// sessionCalendarToken resolves the stored token for the calendar routes.
// A handled response has already been written when it returns nil.
func (s *Server) sessionCalendarToken(c *gin.Context) *oauth2.Token {
	if s.calendar == nil || s.calTokens == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "calendar connection not configured"})
		return nil
	}

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId parameter is required"})
		return nil
	}

	token, err := s.calTokens.LoadToken(c.Request.Context(), sessionID)
	if err != nil {
		s.renderError(c, err)
		return nil
	}
	if token == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "calendar not connected for this session"})
		return nil
	}
	return token
}

// calendarRange parses the from/to query bounds, defaulting to the coming
// week.
func calendarRange(c *gin.Context) (time.Time, time.Time, bool) {
	from := time.Now()
	to := from.AddDate(0, 0, 7)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
			return time.Time{}, time.Time{}, false
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	return from, to, true
}

func (s *Server) handleCalendarEvents(c *gin.Context) {
	token := s.sessionCalendarToken(c)
	if token == nil {
		return
	}
	from, to, ok := calendarRange(c)
	if !ok {
		return
	}

	events, err := s.calendar.ListEvents(c.Request.Context(), token, from, to)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleCalendarFreeBusy(c *gin.Context) {
	token := s.sessionCalendarToken(c)
	if token == nil {
		return
	}
	from, to, ok := calendarRange(c)
	if !ok {
		return
	}

	windows, err := s.calendar.FreeWindows(c.Request.Context(), token, from, to)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"free": windows})
}

type bookAppointmentRequest struct {
	Summary     string    `json:"summary" binding:"required"`
	Description string    `json:"description"`
	Start       time.Time `json:"start" binding:"required"`
	End         time.Time `json:"end" binding:"required"`
}

func (s *Server) handleCalendarBook(c *gin.Context) {
	token := s.sessionCalendarToken(c)
	if token == nil {
		return
	}

	var req bookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed appointment: " + err.Error()})
		return
	}

	eventID, err := s.calendar.BookAppointment(c.Request.Context(), token, req.Summary, req.Description, req.Start, req.End)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"eventId": eventID})
}

// handleIdentityWebhook receives the identity provider's events. Only
// user.created triggers finalization; everything else is acknowledged and
// dropped.
func (s *Server) handleIdentityWebhook(c *gin.Context) {
	if s.verifier == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "identity webhooks not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	event, err := s.verifier.VerifyWebhook(body,
		c.GetHeader("svix-id"),
		c.GetHeader("svix-timestamp"),
		c.GetHeader("svix-signature"),
	)
	if err != nil {
		s.logger.Warn("webhook rejected", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "signature verification failed"})
		return
	}

	if event.Type != "user.created" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	user, err := event.UserData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed user data"})
		return
	}
	if user.UnsafeMetadata.SessionID == "" {
		s.logger.Warn("user.created event without session reference", map[string]interface{}{
			"userId": user.ID,
		})
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	payload, err := s.controller.HandleAuthenticated(c.Request.Context(), user.UnsafeMetadata.SessionID, user.ID)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "finalized",
		"userId": payload.UserID,
	})
}

// renderError maps StandardError codes onto HTTP statuses. Unknown errors
// are never echoed verbatim.
func (s *Server) renderError(c *gin.Context, err error) {
	code, ok := apperrors.CodeOf(err)
	if !ok {
		s.logger.Error("unhandled error", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeValidationFailure:
		status = http.StatusUnprocessableEntity
	case apperrors.ErrCodeMissingRequiredData:
		status = http.StatusConflict
	case apperrors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeStaleAuthEvent:
		status = http.StatusGone
	case apperrors.ErrCodeCollaboratorFailure:
		status = http.StatusBadGateway
	case apperrors.ErrCodePersistenceFailure,
		apperrors.ErrCodeDatabaseConnectionFailed,
		apperrors.ErrCodeDatabaseInsertFailed:
		status = http.StatusServiceUnavailable
	case apperrors.ErrCodePayloadSchemaInvalid:
		status = http.StatusConflict
	}

	var se *apperrors.StandardError
	if stdErr, isStd := err.(*apperrors.StandardError); isStd {
		se = stdErr
	}
	resp := gin.H{"error": gin.H{"code": code}}
	if se != nil {
		resp["error"] = gin.H{
			"code":      se.Code,
			"message":   se.Message,
			"details":   se.Details,
			"retryable": se.Retryable,
			"metadata":  se.Metadata,
		}
	}
	c.JSON(status, resp)
}
