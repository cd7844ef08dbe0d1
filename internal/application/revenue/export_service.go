package revenue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/athlo/dashboard/internal/domain/revenue"
)

// Formatter serializes one snapshot into a downloadable report
type Formatter interface {
	Format(snap *revenue.Snapshot) ([]byte, error)
	Extension() string
	ContentType() string
}

// FormatterFactory defers construction of a formatter so heavy serialization
// dependencies load only when the matching export is first requested.
type FormatterFactory func() (Formatter, error)

// ExportResult is the outcome of one export action: file bytes plus the
// metadata needed to save them. Exports have no other observable effect.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService exposes the two terminal export actions over the currently
// displayed snapshot. Each action acts on the snapshot reference frozen at
// the moment of the call; a concurrent background refresh swaps the view's
// pointer but never mutates the copy being exported.
type ExportService struct {
	view       *ViewService
	text       Formatter
	workbook   FormatterFactory
	filePrefix string
	logger     *zap.Logger
}

// NewExportService creates a new ExportService. The text formatter is
// synchronous over in-memory data; the workbook formatter is constructed
// lazily through the factory.
func NewExportService(view *ViewService, text Formatter, workbook FormatterFactory, filePrefix string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		view:       view,
		text:       text,
		workbook:   workbook,
		filePrefix: filePrefix,
		logger:     logger,
	}
}

// ExportText serializes the displayed snapshot as the delimited text report
func (s *ExportService) ExportText() (*ExportResult, error) {
	return s.export(s.text)
}

// ExportWorkbook serializes the displayed snapshot as the spreadsheet report
func (s *ExportService) ExportWorkbook() (*ExportResult, error) {
	formatter, err := s.workbook()
	if err != nil {
		s.logger.Error("workbook formatter failed to load", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", revenue.ErrExportFailed, err)
	}
	return s.export(formatter)
}

func (s *ExportService) export(formatter Formatter) (*ExportResult, error) {
	snap := s.view.Current()
	if snap == nil {
		return nil, revenue.ErrNoSnapshot
	}

	exportID := uuid.New()
	data, err := formatter.Format(snap)
	if err != nil {
		s.logger.Error("report serialization failed",
			zap.String("export_id", exportID.String()),
			zap.String("extension", formatter.Extension()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", revenue.ErrExportFailed, err)
	}

	result := &ExportResult{
		Filename:    ExportFilename(s.filePrefix, formatter.Extension(), snap.FetchedAt),
		ContentType: formatter.ContentType(),
		Data:        data,
	}

	s.logger.Info("report exported",
		zap.String("export_id", exportID.String()),
		zap.String("filename", result.Filename),
		zap.Int("bytes", len(result.Data)),
		zap.Uint64("snapshot_seq", snap.Seq),
	)
	return result, nil
}

// ExportFilename builds the report filename:
// {prefix}-Revenue-Report-{ISO date}.{ext}
func ExportFilename(prefix, ext string, at time.Time) string {
	return fmt.Sprintf("%s-Revenue-Report-%s.%s", prefix, at.Format("2006-01-02"), ext)
}
