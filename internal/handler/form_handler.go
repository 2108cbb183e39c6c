package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/formbox/formbox-backend/internal/builder"
	"github.com/formbox/formbox-backend/internal/fieldtype"
	"github.com/formbox/formbox-backend/internal/middleware"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/formbox/formbox-backend/internal/response"
	"github.com/formbox/formbox-backend/internal/service"
	"github.com/formbox/formbox-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// FormHandler handles operator-facing form editing endpoints.
type FormHandler struct {
	formService *service.FormService
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(formService *service.FormService) *FormHandler {
	return &FormHandler{formService: formService}
}

// ListForms godoc
// GET /api/v1/forms?page=1&per_page=10
// Returns the authenticated operator's form summaries.
func (h *FormHandler) ListForms(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	summaries, pagination, err := h.formService.List(c.Request.Context(), claims.OperatorID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"forms": summaries}, pagination)
}

// CreateForm godoc
// POST /api/v1/forms
// Creates a form document and mints its share token.
func (h *FormHandler) CreateForm(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SaveFormRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	doc, err := h.formService.Create(c.Request.Context(), claims.OperatorID, req)
	if err != nil {
		h.failSave(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"form": doc})
}

// GetForm godoc
// GET /api/v1/forms/:form_id
// Returns the full document for editing.
func (h *FormHandler) GetForm(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	formID, err := strconv.ParseInt(c.Param("form_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	doc, err := h.formService.Get(c.Request.Context(), formID, claims.OperatorID)
	if err != nil {
		failFormAccess(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"form": doc})
}

// UpdateForm godoc
// PUT /api/v1/forms/:form_id
// Replaces the form document's editable attributes and fields.
func (h *FormHandler) UpdateForm(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	formID, err := strconv.ParseInt(c.Param("form_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveFormRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	doc, err := h.formService.Update(c.Request.Context(), formID, claims.OperatorID, req)
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) || errors.Is(err, service.ErrNotFormOwner) {
			failFormAccess(c, err)
			return
		}
		h.failSave(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"form": doc})
}

// DeleteForm godoc
// DELETE /api/v1/forms/:form_id
// Removes a form and all of its responses.
func (h *FormHandler) DeleteForm(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	formID, err := strconv.ParseInt(c.Param("form_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.formService.Delete(c.Request.Context(), formID, claims.OperatorID); err != nil {
		failFormAccess(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// failFormAccess maps form lookup errors to API error codes. Shared with
// the response review endpoints, which resolve forms the same way.
func failFormAccess(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFormNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotFormOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotFormOwner)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func (h *FormHandler) failSave(c *gin.Context, err error) {
	switch {
	case errors.Is(err, fieldtype.ErrUnknownType):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownFieldType)
	case errors.Is(err, builder.ErrSlotNotAllowed), errors.Is(err, builder.ErrUnknownSlot):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
