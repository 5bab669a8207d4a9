package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslab/research-adm-api/internal/dto"
	"github.com/campuslab/research-adm-api/internal/importer"
	"github.com/campuslab/research-adm-api/internal/service"
	appErrors "github.com/campuslab/research-adm-api/pkg/errors"
	"github.com/campuslab/research-adm-api/pkg/export"
	"github.com/campuslab/research-adm-api/pkg/response"
)

type importService interface {
	Domains() []string
	Run(ctx context.Context, domain string, source io.Reader) (*importer.Report, error)
	RunAsync(domain string, content []byte) (*service.ImportRun, error)
	GetRun(id string) (*service.ImportRun, error)
	ListRuns() []*service.ImportRun
}

// ImportHandler exposes the CSV bulk-import endpoints.
type ImportHandler struct {
	imports       importService
	maxUploadSize int64
	errorLimit    int
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
}

// NewImportHandler constructs handler.
func NewImportHandler(imports importService, maxUploadSize int64, errorLimit int) *ImportHandler {
	if errorLimit <= 0 {
		errorLimit = 10
	}
	return &ImportHandler{
		imports:       imports,
		maxUploadSize: maxUploadSize,
		errorLimit:    errorLimit,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
	}
}

// Register mounts the import routes on the router group.
func (h *ImportHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/imports/domains", h.Domains)
	rg.POST("/imports/:domain", h.Upload)
	rg.GET("/imports/runs", h.ListRuns)
	rg.GET("/imports/runs/:id", h.GetRun)
}

// Domains lists the accepted import domains.
func (h *ImportHandler) Domains(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.imports.Domains())
}

// Upload accepts a CSV (or zip-wrapped CSV) file for the domain in the
// path. With async=true the file is queued and a run snapshot returned;
// otherwise the import runs inline and the report comes back, rendered
// as CSV or PDF when a format query parameter asks for it.
func (h *ImportHandler) Upload(c *gin.Context) {
	domain := c.Param("domain")

	content, filename, err := h.readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	content, err = importer.ExtractCSV(filename, content)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, err.Error()))
		return
	}

	if c.Query("async") == "true" {
		run, err := h.imports.RunAsync(domain, content)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, dto.NewImportRunResponse(run, h.errorLimit))
		return
	}

	report, err := h.imports.Run(c.Request.Context(), domain, bytes.NewReader(content))
	if err != nil {
		response.Error(c, err)
		return
	}

	switch format := c.Query("format"); format {
	case "", "json":
		response.JSON(c, http.StatusOK, dto.NewImportReportResponse(domain, report, h.errorLimit))
	case "csv":
		h.renderAttachment(c, domain, report, format)
	case "pdf":
		h.renderAttachment(c, domain, report, format)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format)))
	}
}

// GetRun returns the state of an asynchronous run.
func (h *ImportHandler) GetRun(c *gin.Context) {
	run, err := h.imports.GetRun(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewImportRunResponse(run, h.errorLimit))
}

// ListRuns returns every registered run, newest first.
func (h *ImportHandler) ListRuns(c *gin.Context) {
	runs := h.imports.ListRuns()
	out := make([]dto.ImportRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, dto.NewImportRunResponse(run, h.errorLimit))
	}
	response.JSON(c, http.StatusOK, out)
}

func (h *ImportHandler) readUpload(c *gin.Context) ([]byte, string, error) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("uploaded file exceeds %d bytes", h.maxUploadSize))
		}
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "multipart form field \"file\" required")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("uploaded file exceeds %d bytes", h.maxUploadSize))
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read uploaded file")
	}
	return content, header.Filename, nil
}

func (h *ImportHandler) renderAttachment(c *gin.Context, domain string, report *importer.Report, format string) {
	dataset := service.ReportDataset(domain, report)

	var data []byte
	var contentType string
	var err error
	switch format {
	case "csv":
		contentType = "text/csv"
		data, err = h.csv.Render(dataset)
	case "pdf":
		contentType = "application/pdf"
		data, err = h.pdf.Render(dataset, fmt.Sprintf("Import report: %s", domain))
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render import report"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=import-report-%s.%s", domain, format))
	c.Data(http.StatusOK, contentType, data)
}
