package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceai/internal/domain"
	"invoiceai/internal/service"
)

// multipartOverhead is the slack allowed on top of the file limit for
// multipart boundaries and part headers.
const multipartOverhead = 1 << 20

// ExtractionHandler handles invoice extraction endpoints.
type ExtractionHandler struct {
	extractionService service.ExtractionService
	maxBytes          int64
}

// NewExtractionHandler creates a new ExtractionHandler. maxBytes is the
// per-file upload limit.
func NewExtractionHandler(extractionService service.ExtractionService, maxBytes int64) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService, maxBytes: maxBytes}
}

// Extract handles POST /api/invoice/extract
// @Summary Extract invoice data
// @Description Upload an invoice (PDF, JPG, JPEG, PNG) and receive structured data
// @Tags invoice
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice document"
// @Success 200 {object} domain.ResultEnvelope "Extraction result (success or failure)"
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 500 {object} APIResponse "Service not configured"
// @Router /invoice/extract [post]
func (h *ExtractionHandler) Extract(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			HandleError(c, domain.ErrFileTooLarge)
			return
		}
		HandleError(c, domain.ErrMissingFile)
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.extractionService.Process(c.Request.Context(), service.UploadInput{
		File:     file,
		Filename: header.Filename,
		Size:     header.Size,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
