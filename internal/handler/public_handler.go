package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/formbox/formbox-backend/internal/fill"
	"github.com/formbox/formbox-backend/internal/model"
	"github.com/formbox/formbox-backend/internal/response"
	"github.com/formbox/formbox-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PublicHandler handles the respondent-facing endpoints reached through a
// form's share token. No authentication applies here.
type PublicHandler struct {
	formService     *service.FormService
	responseService *service.ResponseService
	log             zerolog.Logger
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(formService *service.FormService, responseService *service.ResponseService, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		formService:     formService,
		responseService: responseService,
		log:             log.With().Str("component", "public_handler").Logger(),
	}
}

// GetForm godoc
// GET /api/v1/public/forms/:share_token
// Returns the fillable form document.
func (h *PublicHandler) GetForm(c *gin.Context) {
	doc, err := h.formService.GetByShareToken(c.Request.Context(), c.Param("share_token"))
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"form": publicFormView(doc)})
}

// SubmitResponse godoc
// POST /api/v1/public/forms/:share_token/responses
// Accepts a multipart submission: an "answers" JSON part, optional
// "respondent" and "email" parts, and file parts named image_<uid>_<idx>
// or file_<uid>_<idx> referenced from the answers.
func (h *PublicHandler) SubmitResponse(c *gin.Context) {
	doc, err := h.formService.GetByShareToken(c.Request.Context(), c.Param("share_token"))
	if err != nil {
		if errors.Is(err, service.ErrFormNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	var answers []model.SubmittedAnswer
	if err := json.Unmarshal([]byte(c.PostForm("answers")), &answers); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	rec, err := h.responseService.Submit(c.Request.Context(), doc, service.SubmissionInput{
		Respondent:  c.PostForm("respondent"),
		Email:       c.PostForm("email"),
		Fingerprint: c.ClientIP(),
		Answers:     answers,
		Files:       form.File,
	})
	if err != nil {
		h.failSubmit(c, doc, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"response_id":  rec.ID,
		"submitted_at": rec.SubmittedAt,
	})
}

func (h *PublicHandler) failSubmit(c *gin.Context, doc *model.FormDocument, err error) {
	var reqErr *service.RequiredFieldsError

	switch {
	case errors.As(err, &reqErr):
		fields := make(map[string]string, len(reqErr.Missing))
		for _, label := range reqErr.Missing {
			fields[label] = "This field is required."
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrRequiredFields, fields)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	case errors.Is(err, service.ErrEmailRequired):
		response.Fail(c, http.StatusBadRequest, response.ErrEmailRequired)
	case errors.Is(err, fill.ErrSubmitInFlight):
		response.Fail(c, http.StatusConflict, response.ErrSubmitInFlight)
	case errors.Is(err, fill.ErrUnknownField),
		errors.Is(err, service.ErrMissingFilePart):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
	case errors.Is(err, service.ErrFileTooLarge):
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
	default:
		h.log.Error().Err(err).Int64("form_id", doc.ID).Msg("Submission failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// publicFormView strips author-only attributes from the document before it
// leaves through the public endpoint.
func publicFormView(doc *model.FormDocument) gin.H {
	return gin.H{
		"id":                       doc.ID,
		"title":                    doc.Title,
		"description":              doc.Description,
		"theme":                    doc.Theme,
		"allow_multiple_responses": doc.AllowMultipleResponses,
		"require_email":            doc.RequireEmail,
		"fields":                   doc.Fields,
	}
}
