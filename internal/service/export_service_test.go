package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-portal/internal/models"
	appErrors "github.com/noah-isme/attendance-portal/pkg/errors"
	"github.com/noah-isme/attendance-portal/pkg/storage"
)

func sampleRecords() []models.AttendanceRecord {
	return []models.AttendanceRecord{
		{AttendeeEmail: "a@x.com", ClassDate: "2025-12-15", Status: models.AttendanceStatusPresent, MarkedAt: time.Date(2025, 12, 15, 18, 0, 0, 0, time.UTC)},
		{AttendeeEmail: "b@x.com", ClassDate: "2025-12-15", Status: models.AttendanceStatusPresent, MarkedAt: time.Date(2025, 12, 15, 18, 5, 30, 250e6, time.UTC)},
	}
}

func TestBuildCSV(t *testing.T) {
	svc := NewExportService(nil, nil, nil, ExportConfig{CourseCode: "CS642"}, nil)

	out, err := svc.BuildCSV(sampleRecords())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	assert.Equal(t, []string{
		"email,classDate,status,markedAt",
		"a@x.com,2025-12-15,Present,2025-12-15T18:00:00.000Z",
		"b@x.com,2025-12-15,Present,2025-12-15T18:05:30.250Z",
	}, lines)
}

func TestBuildCSVHeaderOnlyWhenEmpty(t *testing.T) {
	svc := NewExportService(nil, nil, nil, ExportConfig{}, nil)

	out, err := svc.BuildCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "email,classDate,status,markedAt\n", string(out))
}

func TestFilenameAndFormat(t *testing.T) {
	svc := NewExportService(nil, nil, nil, ExportConfig{}, nil)
	assert.Equal(t, "attendance_2025-12-15.csv", svc.Filename("2025-12-15", ExportFormatCSV))
	assert.Equal(t, "attendance_2025-12-15.pdf", svc.Filename("2025-12-15", ExportFormatPDF))

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, f)
	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatPDF, f)
	_, err = ParseFormat("xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRenderPDF(t *testing.T) {
	svc := NewExportService(nil, nil, NewMetricsService(), ExportConfig{CourseCode: "CS642"}, nil)

	file, err := svc.Render(sampleRecords(), "2025-12-15", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "attendance_2025-12-15.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Payload, []byte("%PDF")))
}

func TestPublishAndOpen(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Minute)
	svc := NewExportService(store, signer, nil, ExportConfig{CourseCode: "CS642", APIPrefix: "/api/v1/"}, nil)

	published, err := svc.Publish(context.Background(), sampleRecords(), "2025-12-15", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "attendance_2025-12-15.csv", published.Filename)
	assert.Equal(t, 2, published.Records)
	assert.Equal(t, "/api/v1/exports/"+published.Token, published.URL)

	file, err := svc.Open(published.Token)
	require.NoError(t, err)
	assert.Equal(t, "attendance_2025-12-15.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Payload), "email,classDate,status,markedAt\n"))

	_, err = svc.Open(published.Token + "x")
	assert.Equal(t, appErrors.ErrExportNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublishWithoutStorage(t *testing.T) {
	svc := NewExportService(nil, nil, nil, ExportConfig{}, nil)
	_, err := svc.Publish(context.Background(), nil, "2025-12-15", ExportFormatCSV)
	assert.Error(t, err)
}
