package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-portal/internal/models"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
	"github.com/noah-isme/attendance-portal/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// CheckInHeaders is the column order of every check-in export.
var CheckInHeaders = []string{"email", "classDate", "status", "markedAt"}

// markedAtLayout renders UTC instants with millisecond precision, e.g. 2025-12-15T18:00:00.000Z.
const markedAtLayout = "2006-01-02T15:04:05.000Z07:00"

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string) (string, string, time.Time, error)
	TTL() time.Duration
}

type renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	CourseCode string
	APIPrefix  string
}

// ExportFile is a rendered export ready to be sent as a download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// PublishedExport describes a stored export reachable through a signed link.
type PublishedExport struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	Records   int       `json:"records"`
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService turns check-in records into downloadable files.
type ExportService struct {
	storage   fileStorage
	signer    urlSigner
	renderers map[ExportFormat]renderer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService. storage and signer are only needed for Publish/Open.
func NewExportService(storage fileStorage, signer urlSigner, metrics *MetricsService, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		storage: storage,
		signer:  signer,
		renderers: map[ExportFormat]renderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// ParseFormat maps a query value to a format; empty means CSV.
func ParseFormat(raw string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ExportFormatCSV:
		return ExportFormatCSV, nil
	case ExportFormatPDF:
		return ExportFormatPDF, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
}

// Filename returns attendance_<today>.<ext>.
func (s *ExportService) Filename(today string, format ExportFormat) string {
	return fmt.Sprintf("attendance_%s.%s", today, format)
}

// BuildCSV renders the header row followed by one row per record.
func (s *ExportService) BuildCSV(records []models.AttendanceRecord) ([]byte, error) {
	return s.renderers[ExportFormatCSV].Render(checkInDataset(records), "")
}

// Render produces the named file for records in the requested format.
func (s *ExportService) Render(records []models.AttendanceRecord, today string, format ExportFormat) (*ExportFile, error) {
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	payload, err := r.Render(checkInDataset(records), s.title(today))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.metrics.RecordExport(string(format), "inline")
	return &ExportFile{
		Filename:    s.Filename(today, format),
		ContentType: r.ContentType(),
		Payload:     payload,
	}, nil
}

// Publish stores the rendered export and returns a signed, expiring download link.
// Files older than the link lifetime are pruned first.
func (s *ExportService) Publish(ctx context.Context, records []models.AttendanceRecord, today string, format ExportFormat) (*PublishedExport, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export storage not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if removed, err := s.storage.CleanupOlderThan(s.signer.TTL()); err != nil {
		s.logger.Warn("failed to prune expired exports", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Debug("pruned expired exports", zap.Int("count", len(removed)))
	}

	file, err := s.Render(records, today, format)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	relPath, err := s.storage.Save(path.Join(id, file.Filename), file.Payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.metrics.RecordExport(string(format), "signed_url")

	return &PublishedExport{
		ID:        id,
		Filename:  file.Filename,
		Format:    string(format),
		Records:   len(records),
		Token:     token,
		URL:       fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// Open resolves a signed token back to the stored file.
func (s *ExportService) Open(token string) (*ExportFile, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.ErrExportNotFound
	}
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportNotFound.Code, appErrors.ErrExportNotFound.Status, appErrors.ErrExportNotFound.Message)
	}
	f, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrExportNotFound.Code, appErrors.ErrExportNotFound.Status, appErrors.ErrExportNotFound.Message)
	}
	defer f.Close()

	payload, err := io.ReadAll(f)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export")
	}

	name := path.Base(relPath)
	contentType := "application/octet-stream"
	for _, r := range s.renderers {
		if strings.HasSuffix(name, "."+r.Extension()) {
			contentType = r.ContentType()
			break
		}
	}
	return &ExportFile{Filename: name, ContentType: contentType, Payload: payload}, nil
}

func (s *ExportService) title(today string) string {
	return fmt.Sprintf("%s check-ins %s", s.cfg.CourseCode, today)
}

func checkInDataset(records []models.AttendanceRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, map[string]string{
			"email":     r.AttendeeEmail,
			"classDate": r.ClassDate,
			"status":    string(r.Status),
			"markedAt":  r.MarkedAt.UTC().Format(markedAtLayout),
		})
	}
	return export.Dataset{Headers: CheckInHeaders, Rows: rows}
}
