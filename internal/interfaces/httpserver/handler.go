package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "mailsort/internal/application/email"
	"mailsort/internal/domain/email"
)

type Classifier interface {
	Execute(ctx context.Context, session *app.Session, req email.Request) email.Result
}

type ClassifyHandler struct {
	classifier Classifier
	logger     *zap.Logger
}

func NewClassifyHandler(classifier Classifier, logger *zap.Logger) *ClassifyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassifyHandler{
		classifier: classifier,
		logger:     logger,
	}
}

type classifyRequest struct {
	Credential string `json:"credential"`
	EmailText  string `json:"email_text"`
}

type classifyResponse struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Known    bool   `json:"known"`
}

type errorResponse struct {
	ID    string `json:"id,omitempty"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Classify handles POST /v1/classify
func (h *ClassifyHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Kind: string(email.KindValidation), Error: "invalid request body"})
		return
	}

	// One session per request; the HTTP caller only sees the final result.
	result := h.classifier.Execute(c.Request.Context(), app.NewSession(nil), email.Request{
		Credential: req.Credential,
		EmailText:  req.EmailText,
	})

	if result.Failed() {
		c.JSON(statusFor(result.Err.Kind), errorResponse{
			ID:    result.ID,
			Kind:  string(result.Err.Kind),
			Error: result.Err.Message,
		})
		return
	}

	c.JSON(http.StatusOK, classifyResponse{
		ID:       result.ID,
		Category: result.Category.String(),
		Known:    result.Known,
	})
}

func statusFor(kind email.ErrorKind) int {
	switch kind {
	case email.KindValidation:
		return http.StatusBadRequest
	case email.KindAuth:
		return http.StatusUnauthorized
	case email.KindCancelled:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
