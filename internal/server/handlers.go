package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ginjaninja78/invoice-qc/internal/pipeline"
	"github.com/ginjaninja78/invoice-qc/internal/schema"
	"github.com/ginjaninja78/invoice-qc/internal/types"
)

// extractResponse is the body of POST /extract-and-validate.
type extractResponse struct {
	ExtractedInvoices []types.Invoice        `json:"extracted_invoices"`
	ValidationReport  types.ValidationReport `json:"validation_report"`
	ExtractionErrors  []pipeline.FileFailure `json:"extraction_errors"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": serviceName,
		"version": APIVersion,
		"endpoints": gin.H{
			"health":               "/health",
			"validate_json":        "POST /validate-json",
			"extract_and_validate": "POST /extract-and-validate",
			"info":                 "/api/info",
		},
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": serviceName,
		"version": APIVersion,
	})
}

func (s *Server) apiInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     serviceName + " API",
		"version":     APIVersion,
		"description": "Extract and validate invoice data from PDFs",
		"features": []string{
			"PDF text extraction",
			"Structured data parsing",
			"Business rule validation",
			"Duplicate detection",
			"Multi-file batch processing",
		},
		"supported_languages":  []string{"German (primary)"},
		"supported_currencies": s.pipeline.KnownCurrencies(),
		"validation_rules": gin.H{
			"completeness":      4,
			"format":            3,
			"business_logic":    3,
			"anomaly_detection": 2,
		},
	})
}

// validateJSON validates a JSON array of invoices.
func (s *Server) validateJSON(c *gin.Context) {
	body, err := io.ReadAll(s.limitBody(c))
	if err != nil {
		status := http.StatusBadRequest
		if isTooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": fmt.Sprintf("read body: %v", err)})
		return
	}

	if err := schema.ValidateInvoices(body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var invoices []types.Invoice
	if err := json.Unmarshal(body, &invoices); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid payload: %v", err)})
		return
	}

	c.JSON(http.StatusOK, s.pipeline.Validate(invoices))
}

// extractAndValidate accepts uploaded PDFs under the multipart field "files".
func (s *Server) extractAndValidate(c *gin.Context) {
	s.limitBody(c)
	form, err := c.MultipartForm()
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF files provided"})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No PDF files provided"})
		return
	}
	for _, fh := range uploads {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid file type: %s. Only PDF files are supported.", fh.Filename),
			})
			return
		}
	}

	tmp, err := os.MkdirTemp("", "invoiceqc-upload-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Processing error: %v", err)})
		return
	}
	defer os.RemoveAll(tmp)

	paths := make([]string, 0, len(uploads))
	for _, fh := range uploads {
		dst := filepath.Join(tmp, filepath.Base(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Processing error: %v", err)})
			return
		}
		paths = append(paths, dst)
	}

	ext, err := s.pipeline.ExtractFiles(c.Request.Context(), paths)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Processing error: %v", err)})
		return
	}
	if len(ext.Invoices) == 0 {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "Failed to extract any invoices",
			"extraction_errors": ext.Failures,
		})
		return
	}

	c.JSON(http.StatusOK, extractResponse{
		ExtractedInvoices: ext.Invoices,
		ValidationReport:  s.pipeline.Validate(ext.Invoices),
		ExtractionErrors:  ext.Failures,
	})
}

// limitBody caps the request body at the configured upload size.
func (s *Server) limitBody(c *gin.Context) io.Reader {
	if s.cfg.MaxUploadMB > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadMB<<20)
	}
	return c.Request.Body
}

// isTooLarge reports whether err came from the body limit.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
