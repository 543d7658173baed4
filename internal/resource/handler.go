package resource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/eleven-am/mohami/internal/dto"
	"github.com/eleven-am/mohami/internal/extract"
	"github.com/eleven-am/mohami/internal/metrics"
	"github.com/eleven-am/mohami/internal/shared"
	"github.com/eleven-am/mohami/internal/subject"
	"github.com/labstack/echo/v4"
)

const (
	DefaultMaxUploadBytes = 20 << 20

	CredentialHeader = "X-Goog-Api-Key"

	MsgPDFFailed          = "فشل قراءة ملف الـ PDF."
	MsgImageFailed        = "فشل تحليل الصورة."
	MsgImageCredential    = "يجب إدخال مفتاح API أولاً لاستخدام ميزة تحليل الصور."
	MsgSaveFailedPrefix   = "حدث خطأ أثناء الحفظ: "
	MsgDeleteFailed       = "فشل الحذف من قاعدة البيانات"
	outcomePersisted      = "persisted"
	outcomeLocal          = "local"
	outcomeExtractionFail = "extraction_failed"
	outcomeRejected       = "rejected"
)

type ImageReader interface {
	ExtractText(ctx context.Context, apiKey string, image []byte, mimeType string) (string, error)
}

type HandlerConfig struct {
	MaxUploadBytes int64
}

type Handler struct {
	library   *Library
	catalog   *subject.Catalog
	ocr       ImageReader
	metrics   *metrics.Metrics
	maxUpload int64
	logger    *slog.Logger
}

func NewHandler(library *Library, catalog *subject.Catalog, ocr ImageReader, m *metrics.Metrics, cfg HandlerConfig, logger *slog.Logger) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		library:   library,
		catalog:   catalog,
		ocr:       ocr,
		metrics:   m,
		maxUpload: cfg.MaxUploadBytes,
		logger:    logger.With("handler", "resource"),
	}
}

// RegisterRoutes mounts the resource routes on g. upload middleware applies to
// the POST routes only.
func (h *Handler) RegisterRoutes(g *echo.Group, upload ...echo.MiddlewareFunc) {
	g.GET("/subjects/:id/resources", h.List)
	g.POST("/subjects/:id/resources/text", h.CreateTextNote, upload...)
	g.POST("/subjects/:id/resources/pdf", h.UploadPDF, upload...)
	g.POST("/subjects/:id/resources/image", h.UploadImage, upload...)
	g.DELETE("/resources/:id", h.Delete)
}

func toResponse(r *Resource) dto.ResourceResponse {
	return dto.ResourceResponse{
		ID:        r.ID,
		SubjectID: r.SubjectID,
		Title:     r.Title,
		Content:   r.Content,
		Type:      string(r.Type),
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		Persisted: r.Persisted,
	}
}

func (h *Handler) requireSubject(c echo.Context) (string, error) {
	id := c.Param("id")
	if _, ok := h.catalog.Get(id); !ok {
		return "", shared.NotFound("subject_not_found", "subject not found")
	}
	return id, nil
}

// List godoc
// @Summary      List resources
// @Description  Returns the subject's resources, newest first. When the store is unreachable only locally kept records are returned and fallback is set.
// @Tags         resources
// @Produce      json
// @Param        id   path      string  true  "Subject ID"
// @Success      200  {object}  dto.ResourceListResponse
// @Failure      404  {object}  shared.APIError
// @Router       /subjects/{id}/resources [get]
func (h *Handler) List(c echo.Context) error {
	subjectID, err := h.requireSubject(c)
	if err != nil {
		return err
	}

	rs, fallback := h.library.List(c.Request().Context(), subjectID)
	resp := make([]dto.ResourceResponse, len(rs))
	for i, r := range rs {
		resp[i] = toResponse(r)
	}

	return c.JSON(http.StatusOK, dto.ResourceListResponse{
		SubjectID: subjectID,
		Resources: resp,
		Fallback:  fallback,
	})
}

// CreateTextNote godoc
// @Summary      Add a text note
// @Tags         resources
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Subject ID"
// @Param        request  body      dto.CreateTextNoteRequest  true  "Note"
// @Success      201      {object}  dto.CreateResourceResponse
// @Success      202      {object}  dto.CreateResourceResponse  "Kept locally, store unavailable"
// @Failure      400      {object}  shared.APIError
// @Failure      404      {object}  shared.APIError
// @Router       /subjects/{id}/resources/text [post]
func (h *Handler) CreateTextNote(c echo.Context) error {
	subjectID, err := h.requireSubject(c)
	if err != nil {
		return err
	}

	var req dto.CreateTextNoteRequest
	if err := c.Bind(&req); err != nil {
		return shared.BadRequest("invalid_request", "invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		h.metrics.RecordUpload(string(TypeText), outcomeRejected, 0)
		return shared.BadRequest("missing_content", "content is required")
	}

	return h.add(c, &Resource{
		SubjectID: subjectID,
		Title:     TextNoteTitle,
		Content:   req.Content,
		Type:      TypeText,
	})
}

// UploadPDF godoc
// @Summary      Upload a PDF
// @Description  Extracts the text of the first 50 pages and stores it as a resource titled with the file name.
// @Tags         resources
// @Accept       multipart/form-data
// @Produce      json
// @Param        id    path      string  true  "Subject ID"
// @Param        file  formData  file    true  "PDF document"
// @Success      201   {object}  dto.CreateResourceResponse
// @Success      202   {object}  dto.CreateResourceResponse  "Kept locally, store unavailable"
// @Failure      400   {object}  shared.APIError
// @Failure      413   {object}  shared.APIError
// @Failure      422   {object}  shared.APIError
// @Router       /subjects/{id}/resources/pdf [post]
func (h *Handler) UploadPDF(c echo.Context) error {
	subjectID, err := h.requireSubject(c)
	if err != nil {
		return err
	}

	fh, data, err := h.readUpload(c)
	if err != nil {
		h.metrics.RecordUpload(string(TypePDF), outcomeRejected, 0)
		return err
	}

	text, err := extract.PDFBytes(data)
	if err != nil {
		h.logger.Warn("pdf extraction failed", "file", fh.Filename, "error", err)
		h.metrics.RecordUpload(string(TypePDF), outcomeExtractionFail, 0)
		return shared.Unprocessable("pdf_extraction_failed", MsgPDFFailed)
	}

	return h.add(c, &Resource{
		SubjectID: subjectID,
		Title:     fh.Filename,
		Content:   text,
		Type:      TypePDF,
	})
}

// UploadImage godoc
// @Summary      Upload an image
// @Description  Runs OCR over the image with the caller's Gemini key and stores the extracted text.
// @Tags         resources
// @Accept       multipart/form-data
// @Produce      json
// @Param        id              path      string  true   "Subject ID"
// @Param        file            formData  file    true   "Image"
// @Param        api_key         formData  string  false  "Gemini API key"
// @Param        X-Goog-Api-Key  header    string  false  "Gemini API key"
// @Success      201             {object}  dto.CreateResourceResponse
// @Success      202             {object}  dto.CreateResourceResponse  "Kept locally, store unavailable"
// @Failure      400             {object}  shared.APIError
// @Failure      413             {object}  shared.APIError
// @Failure      422             {object}  shared.APIError
// @Router       /subjects/{id}/resources/image [post]
func (h *Handler) UploadImage(c echo.Context) error {
	subjectID, err := h.requireSubject(c)
	if err != nil {
		return err
	}

	apiKey := strings.TrimSpace(c.Request().Header.Get(CredentialHeader))
	if apiKey == "" {
		apiKey = strings.TrimSpace(c.FormValue("api_key"))
	}
	if apiKey == "" {
		h.metrics.RecordUpload(string(TypeImage), outcomeRejected, 0)
		return shared.BadRequest("missing_api_key", MsgImageCredential)
	}

	fh, data, err := h.readUpload(c)
	if err != nil {
		h.metrics.RecordUpload(string(TypeImage), outcomeRejected, 0)
		return err
	}

	mimeType := fh.Header.Get(echo.HeaderContentType)
	if mimeType == "" || mimeType == echo.MIMEOctetStream {
		mimeType = http.DetectContentType(data)
	}

	text, err := h.ocr.ExtractText(c.Request().Context(), apiKey, data, mimeType)
	if err != nil {
		h.logger.Warn("image extraction failed", "file", fh.Filename, "error", err)
		h.metrics.RecordUpload(string(TypeImage), outcomeExtractionFail, 0)
		return shared.Unprocessable("image_extraction_failed", MsgImageFailed)
	}

	return h.add(c, &Resource{
		SubjectID: subjectID,
		Title:     ImageTitle(fh.Filename),
		Content:   text,
		Type:      TypeImage,
	})
}

// Delete godoc
// @Summary      Delete a resource
// @Tags         resources
// @Param        id   path  string  true  "Resource ID"
// @Success      204  "No Content"
// @Failure      404  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /resources/{id} [delete]
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")

	if err := h.library.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("resource_not_found", "resource not found")
		}
		h.logger.Error("failed to delete resource", "error", err, "resource_id", id)
		return shared.InternalError("delete_failed", MsgDeleteFailed)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) add(c echo.Context, r *Resource) error {
	saved, err := h.library.Add(c.Request().Context(), r)
	if err != nil {
		h.metrics.RecordUpload(string(r.Type), outcomeLocal, len(r.Content))
		return c.JSON(http.StatusAccepted, dto.CreateResourceResponse{
			Resource: toResponse(saved),
			Warning:  MsgSaveFailedPrefix + err.Error(),
		})
	}

	h.metrics.RecordUpload(string(r.Type), outcomePersisted, len(r.Content))
	return c.JSON(http.StatusCreated, dto.CreateResourceResponse{Resource: toResponse(saved)})
}

func (h *Handler) readUpload(c echo.Context) (*multipart.FileHeader, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil, shared.BadRequest("missing_file", "file is required")
	}
	if fh.Size > h.maxUpload {
		return nil, nil, shared.TooLarge("file_too_large", "file exceeds the upload limit")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, shared.BadRequest("invalid_file", "could not open uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, nil, shared.BadRequest("invalid_file", "could not read uploaded file")
	}
	if int64(len(data)) > h.maxUpload {
		return nil, nil, shared.TooLarge("file_too_large", "file exceeds the upload limit")
	}
	return fh, data, nil
}
