package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/mcp-pdf-boxes/internal/export"
	"github.com/a3tai/mcp-pdf-boxes/internal/pdf"
)

// BoxesHandler serves box extraction over HTTP
type BoxesHandler struct {
	service     *pdf.Service
	logger      logrus.FieldLogger
	maxFileSize int64
}

// NewBoxesHandler creates a handler backed by service
func NewBoxesHandler(service *pdf.Service, logger logrus.FieldLogger) *BoxesHandler {
	return &BoxesHandler{
		service:     service,
		logger:      logger,
		maxFileSize: service.GetMaxFileSize(),
	}
}

// Extract handles POST /api/v1/boxes/extract. The PDF comes in the multipart
// field "file"; optional form fields override the extraction defaults and
// "format" selects json (default), xlsx or csv.
func (h *BoxesHandler) Extract(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			sendError(c, h.logger, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
				fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit))
			return
		}
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("file missing: %w", err))
		return
	}
	defer file.Close()

	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		sendError(c, h.logger, http.StatusRequestEntityTooLarge, CodeFileTooLarge,
			&pdf.FileTooLargeError{Size: header.Size, Max: h.maxFileSize})
		return
	}

	format := export.FormatJSON
	if name := c.PostForm("format"); name != "" {
		if format, err = export.ParseFormat(name); err != nil {
			sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err)
			return
		}
	}

	overrides, err := formOverrides(c)
	if err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, err)
		return
	}
	if _, err := h.service.Options(overrides); err != nil {
		status, code := statusFor(err)
		if status == http.StatusInternalServerError {
			status, code = http.StatusBadRequest, CodeInvalidRequest
		}
		sendError(c, h.logger, status, code, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(c, h.logger, http.StatusBadRequest, CodeInvalidRequest, fmt.Errorf("cannot read upload: %w", err))
		return
	}

	result, err := h.service.ExtractBoxes(data, c.PostForm("password"), overrides)
	if err != nil {
		status, code := statusFor(err)
		sendError(c, h.logger, status, code, err)
		return
	}
	result.Path = header.Filename
	if onlyMatched, _ := strconv.ParseBool(c.PostForm("only_matched")); onlyMatched {
		result.Rows = result.Rows.OnlyMatched()
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID(c),
		"file":       header.Filename,
		"pages":      result.Pages,
		"matched":    result.Matched,
		"format":     format,
	}).Info("extracted boxes from upload")

	if format == export.FormatJSON {
		c.JSON(http.StatusOK, result)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, result.Rows, h.service.ExportOptions(overrides)); err != nil {
		sendError(c, h.logger, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, attachmentName(header.Filename, format)))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// formOverrides reads the optional extraction fields of the form
func formOverrides(c *gin.Context) (pdf.Overrides, error) {
	var overrides pdf.Overrides

	for _, field := range []struct {
		name string
		dst  **int
	}{
		{"range_start", &overrides.RangeStart},
		{"range_end", &overrides.RangeEnd},
	} {
		value := strings.TrimSpace(c.PostForm(field.name))
		if value == "" {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return overrides, fmt.Errorf("%s must be a whole number: %q", field.name, value)
		}
		*field.dst = &n
	}

	if value := strings.TrimSpace(c.PostForm("y_tolerance")); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return overrides, fmt.Errorf("y_tolerance must be a number: %q", value)
		}
		overrides.YTolerance = &f
	}

	overrides.NumberFormat = strings.TrimSpace(c.PostForm("number_format"))
	overrides.Assignment = strings.TrimSpace(c.PostForm("assignment"))
	return overrides, nil
}

// attachmentName derives the download name from the uploaded file name
func attachmentName(upload string, format export.Format) string {
	base := strings.TrimSuffix(filepath.Base(upload), filepath.Ext(upload))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "boxes"
	}
	base = strings.ReplaceAll(base, `"`, "")
	return fmt.Sprintf("%s-boxes.%s", base, format)
}
