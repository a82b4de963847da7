package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"laptopadvisor/internal/service"
)

// CatalogHandler handles catalog-related HTTP requests
type CatalogHandler struct {
	svc            *service.RecommendationService
	maxUploadBytes int64
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc *service.RecommendationService, maxUploadBytes int64) *CatalogHandler {
	return &CatalogHandler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// Ingest handles POST /api/v1/catalog
//
// The catalog is read from a multipart "file" field or from the raw request
// body. The format comes from the "format" query parameter, the upload's file
// extension or the content type, in that order. With train=true the new
// catalog is trained before the response is written.
func (h *CatalogHandler) Ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	var (
		body     io.Reader = c.Request.Body
		filename string
	)
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload: " + err.Error()})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload: " + err.Error()})
			return
		}
		defer f.Close()
		body = f
		filename = fh.Filename
	}

	format, err := detectFormat(c.Query("format"), filename, c.ContentType())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.svc.Ingest(c.Request.Context(), body, format)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Catalog exceeds upload limit"})
			return
		}
		respondError(c, err)
		return
	}

	if train, _ := strconv.ParseBool(c.DefaultQuery("train", "false")); train {
		run, err := h.svc.Train(c.Request.Context())
		if err != nil {
			c.JSON(statusForError(err), gin.H{"ingest": response, "error": err.Error()})
			return
		}
		response.State = string(h.svc.State())
		c.JSON(http.StatusCreated, gin.H{"ingest": response, "training": run})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ingest": response})
}

func detectFormat(param, filename, contentType string) (service.Format, error) {
	switch strings.ToLower(param) {
	case "csv":
		return service.FormatCSV, nil
	case "xlsx":
		return service.FormatXLSX, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported catalog format %q", param)
	}

	if strings.EqualFold(filepath.Ext(filename), ".xlsx") ||
		strings.Contains(contentType, "spreadsheetml") {
		return service.FormatXLSX, nil
	}
	return service.FormatCSV, nil
}

// Stats handles GET /api/v1/catalog/stats
func (h *CatalogHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetLaptop handles GET /api/v1/laptops/:id
func (h *CatalogHandler) GetLaptop(c *gin.Context) {
	laptop, err := h.svc.GetLaptop(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, laptop)
}

// Similar handles GET /api/v1/laptops/:id/similar
func (h *CatalogHandler) Similar(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	response, err := h.svc.Similar(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}
