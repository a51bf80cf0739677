package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tuttoxa9/vahtarep10/internal/dtos"
	"github.com/tuttoxa9/vahtarep10/internal/services"
)

type Submitter interface {
	SubmitApplication(ctx context.Context, in services.ApplicationInput) (*services.SubmissionResult, error)
	SubmitEmployerApplication(ctx context.Context, in services.EmployerInput) (*services.EmployerSubmissionResult, error)
}

type ApplicationHandler struct {
	Submissions Submitter
}

func NewApplicationHandler(s Submitter) *ApplicationHandler {
	return &ApplicationHandler{Submissions: s}
}

// SubmitApplication is the POST /submit-application endpoint
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	var req dtos.SubmitApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.Submissions.SubmitApplication(c.Request.Context(), req.ToInput())
	if err != nil {
		writeSubmissionError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewSubmitApplicationResponse(res))
}

// SubmitEmployerApplication is the POST /submit-employer-application endpoint
func (h *ApplicationHandler) SubmitEmployerApplication(c *gin.Context) {
	var req dtos.EmployerApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.Submissions.SubmitEmployerApplication(c.Request.Context(), req.ToInput())
	if err != nil {
		writeSubmissionError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.NewEmployerApplicationResponse(res))
}

// bindJSON decodes the body into dst. An empty body decodes as {} so the
// missing fields get reported by validation.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: "Invalid JSON in request body"})
		return false
	}
	return true
}

func writeSubmissionError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, dtos.ErrorResponse{Error: verr.Error()})
		return
	}

	zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("Submission failed")
	c.JSON(http.StatusInternalServerError, dtos.ErrorResponse{
		Error:   "Internal server error",
		Details: err.Error(),
	})
}
