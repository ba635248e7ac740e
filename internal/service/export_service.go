package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/class-series-api/internal/engine"
	"github.com/noah-isme/class-series-api/internal/models"
	appErrors "github.com/noah-isme/class-series-api/pkg/errors"
	"github.com/noah-isme/class-series-api/pkg/export"
)

// ExportFormat selects the roster rendering.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult is a rendered roster ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

var (
	rosterHeaders = []string{"Start", "End", "Class", "Type", "Teachers", "Enrolled", "Capacity", "Waitlist", "Status"}
	rosterWidths  = []float64{1, 1, 3, 2, 4, 1.2, 1.2, 1.2, 1.5}
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the roster of one day from the current snapshot.
type ExportService struct {
	store  *SnapshotStore
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(store *SnapshotStore, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{store: store, csv: csv, pdf: pdf, logger: logger}
}

// DayRoster renders every instance on date, cancelled ones included.
func (s *ExportService) DayRoster(ctx context.Context, date time.Time, format ExportFormat) (*ExportResult, error) {
	snapshot, err := s.store.Current(ctx)
	if err != nil {
		return nil, err
	}
	day := engine.SortByStartTime(engine.FilterByDate(snapshot.Instances, date))
	data := buildRosterDataset(day)
	stamp := models.FormatDate(date)

	switch format {
	case ExportPDF:
		body, err := s.pdf.Render(data, "Classes "+stamp)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
		}
		return &ExportResult{Filename: "roster-" + stamp + ".pdf", ContentType: "application/pdf", Body: body}, nil
	case ExportCSV, "":
		body, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
		}
		return &ExportResult{Filename: "roster-" + stamp + ".csv", ContentType: "text/csv", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildRosterDataset(instances []models.ClassInstance) export.Dataset {
	rows := make([]map[string]string, 0, len(instances))
	for _, inst := range instances {
		teachers := make([]string, 0, len(inst.Teachers))
		for _, t := range inst.Teachers {
			teachers = append(teachers, t.Name)
		}
		rows = append(rows, map[string]string{
			"Start":    inst.StartTime,
			"End":      inst.EndTime,
			"Class":    inst.Name,
			"Type":     inst.ClassTypeName(),
			"Teachers": strings.Join(teachers, ", "),
			"Enrolled": strconv.Itoa(len(inst.EnrolledUsers)),
			"Capacity": strconv.Itoa(inst.Capacity),
			"Waitlist": strconv.Itoa(len(inst.Waitlist)),
			"Status":   string(inst.Status),
		})
	}
	return export.Dataset{Headers: rosterHeaders, Rows: rows, Widths: rosterWidths}
}
