package handler

import (
	"errors"
	"io"
	"net/http"

	"startupsaathi-backend/internal/model"
	"startupsaathi-backend/internal/service"
	"startupsaathi-backend/internal/storage"
	"startupsaathi-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const notificationTitle = "Chat error"

type AssistantHandler struct {
	assistantService *service.AssistantService
}

func NewAssistantHandler(assistantService *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{
		assistantService: assistantService,
	}
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *AssistantHandler) OpenSession(c *gin.Context) {
	var req model.OpenSessionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.assistantService.OpenSession(c.Request.Context(), req.InitialQuestion)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.writeResult(c, http.StatusCreated, res)
}

func (h *AssistantHandler) ReopenSession(c *gin.Context) {
	var req model.OpenSessionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.assistantService.Open(c.Request.Context(), c.Param("session_id"), req.InitialQuestion)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.writeResult(c, http.StatusOK, res)
}

func (h *AssistantHandler) CloseSession(c *gin.Context) {
	session, err := h.assistantService.Close(c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *AssistantHandler) DestroySession(c *gin.Context) {
	if err := h.assistantService.Destroy(c.Param("session_id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Session destroyed"})
}

func (h *AssistantHandler) GetSession(c *gin.Context) {
	session, err := h.assistantService.Get(c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session))
}

func (h *AssistantHandler) ListSessions(c *gin.Context) {
	sessions, err := h.assistantService.List()
	if err != nil {
		h.writeError(c, err)
		return
	}

	summaries := make([]model.SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, model.SessionSummary{
			SessionID: s.ID,
			Open:      s.Open,
			Pending:   s.Pending,
			TurnCount: len(s.Turns),
			UpdatedAt: s.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

func (h *AssistantHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.assistantService.Submit(c.Request.Context(), c.Param("session_id"), req.Question)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.writeResult(c, http.StatusOK, res)
}

// Ask is the stateless endpoint kept for clients of the old ask-gemini
// function.
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req model.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	text, err := h.assistantService.Ask(c.Request.Context(), req.Prompt, req.Messages)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyPrompt), errors.Is(err, service.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Errorf("ask failed: %v", err)
			c.JSON(completionStatus(err), gin.H{"error": model.FailureReason(err)})
		}
		return
	}

	c.JSON(http.StatusOK, model.AskResponse{Text: text})
}

func (h *AssistantHandler) writeResult(c *gin.Context, status int, res service.Result) {
	session := toSessionResponse(res.Session)

	if res.Outcome == service.OutcomeFailed {
		reason := model.FailureReason(res.Err)
		c.JSON(completionStatus(res.Err), gin.H{
			"error":   reason,
			"outcome": res.Outcome,
			"notification": model.Notification{
				Title:       notificationTitle,
				Description: reason,
			},
			"session": session,
		})
		return
	}

	c.JSON(status, model.SubmitResponse{
		Outcome: string(res.Outcome),
		Session: session,
	})
}

func (h *AssistantHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Errorf("assistant request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// completionStatus maps completion failures onto gateway statuses.
func completionStatus(err error) int {
	if errors.Is(err, model.ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func toSessionResponse(s model.Session) model.SessionResponse {
	turns := s.Turns
	if turns == nil {
		turns = []model.Turn{}
	}
	return model.SessionResponse{
		SessionID:         s.ID,
		Open:              s.Open,
		Pending:           s.Pending,
		AutoStartConsumed: s.AutoStartConsumed,
		Turns:             turns,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}
