package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/formbox/formbox-backend/internal/middleware"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/formbox/formbox-backend/internal/response"
	"github.com/formbox/formbox-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ResponseHandler handles operator-facing response review endpoints.
type ResponseHandler struct {
	formService     *service.FormService
	responseService *service.ResponseService
	exportService   *service.ExportService
}

// NewResponseHandler creates a new ResponseHandler.
func NewResponseHandler(formService *service.FormService, responseService *service.ResponseService, exportService *service.ExportService) *ResponseHandler {
	return &ResponseHandler{
		formService:     formService,
		responseService: responseService,
		exportService:   exportService,
	}
}

// ListResponses godoc
// GET /api/v1/forms/:form_id/responses
// Returns every submission rendered against the current document.
func (h *ResponseHandler) ListResponses(c *gin.Context) {
	doc, ok := h.ownedForm(c)
	if !ok {
		return
	}

	rendered, err := h.responseService.ListRendered(c.Request.Context(), doc)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"responses": rendered,
		"total":     len(rendered),
	})
}

// ExportResponsesCSV godoc
// GET /api/v1/forms/:form_id/responses.csv
// Streams every submission as a CSV download.
func (h *ResponseHandler) ExportResponsesCSV(c *gin.Context) {
	doc, ok := h.ownedForm(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("form-%d-responses.csv", doc.ID)))

	if err := h.exportService.WriteCSV(c.Request.Context(), doc, c.Writer); err != nil {
		// Headers are already out; all we can do is cut the stream.
		_ = c.Error(err)
	}
}

// ownedForm resolves :form_id and enforces ownership, writing the error
// response itself on failure.
func (h *ResponseHandler) ownedForm(c *gin.Context) (doc *model.FormDocument, ok bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	formID, err := strconv.ParseInt(c.Param("form_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	d, err := h.formService.Get(c.Request.Context(), formID, claims.OperatorID)
	if err != nil {
		failFormAccess(c, err)
		return nil, false
	}
	return d, true
}
