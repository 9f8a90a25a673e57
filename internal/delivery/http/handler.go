package http

import (
	"errors"
	"image"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/adck872/ReceiptScanningAI/internal/domain"
	"github.com/adck872/ReceiptScanningAI/internal/usecase"
)

// DocumentScanner rectifies a photographed receipt into a flat
// top-down view before preprocessing.
type DocumentScanner interface {
	ScanDocument(img image.Image) (image.Image, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	receipts   *usecase.ReceiptService
	expiry     *usecase.ExpiryService
	scanner    DocumentScanner
	notifyDays int
}

// NewHandler creates a new HTTP handler
func NewHandler(receipts *usecase.ReceiptService, expiry *usecase.ExpiryService, scanner DocumentScanner, notifyDays int) *Handler {
	return &Handler{
		receipts:   receipts,
		expiry:     expiry,
		scanner:    scanner,
		notifyDays: notifyDays,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "receiptscan",
		"version": "1.0.0",
	})
}

// UploadReceipt accepts a multipart receipt photo, runs the
// reconciliation pipeline and returns matched and unmatched items.
// With ?scan=true the photo is perspective-corrected first.
func (h *Handler) UploadReceipt(c *gin.Context) {
	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'receipt' file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open upload"})
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrImageDecode.Error()})
		return
	}

	if c.Query("scan") == "true" {
		img, err = h.scanner.ScanDocument(img)
		if err != nil {
			if errors.Is(err, domain.ErrOutlineNotFound) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.receipts.ProcessReceipt(c.Request.Context(), img)
	if err != nil {
		if errors.Is(err, domain.ErrExtraction) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	pantry, err := h.receipts.ListPantry(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matched":   result.Matched,
		"unmatched": result.Unmatched,
		"pantry":    pantry,
	})
}

// ListPantry returns the full inventory ordered by ascending expiry date.
func (h *Handler) ListPantry(c *gin.Context) {
	items, err := h.receipts.ListPantry(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

// updateItemRequest is the body of a pantry item update.
type updateItemRequest struct {
	Name       string `json:"name" binding:"required"`
	ExpiryDate string `json:"expiryDate" binding:"required"`
}

// UpdatePantryItem edits the name and expiry date of one record.
func (h *Handler) UpdatePantryItem(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.receipts.UpdateItem(c.Request.Context(), id, req.Name, req.ExpiryDate)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDateParse), errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	}
}

// DeletePantryItem removes one record by id.
func (h *Handler) DeletePantryItem(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	err = h.receipts.DeleteItem(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

// Notifications returns soon-to-expire alerts, soonest first.
func (h *Handler) Notifications(c *gin.Context) {
	days := h.notifyDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	notifications, err := h.expiry.Notifications(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	messages := make([]string, 0, len(notifications))
	for _, n := range notifications {
		messages = append(messages, usecase.FormatNotification(n))
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"messages":      messages,
	})
}

func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
