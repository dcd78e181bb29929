package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/notification-service/internal/repositories"
)

const (
	exportSheetName = "Notifications"
	// MaxExportRows caps a single export.
	MaxExportRows = 10000
)

var exportHeaders = []string{"ID", "User ID", "Type", "Title", "Message", "Read", "Read At", "Created At"}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportNotifications(ctx context.Context, req *ExportRequest) ([]byte, error) {
	if req == nil {
		req = &ExportRequest{}
	}

	rows, err := s.repo.Notification().ListForExport(ctx, repositories.NotificationFilters{
		UserID:   req.UserID,
		Type:     req.Type,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	}, MaxExportRows)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to prepare sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range exportHeaders {
		if err := f.SetCellValue(exportSheetName, cellName(i, 1), h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	lastHeader := cellName(len(exportHeaders)-1, 1)
	_ = f.SetCellStyle(exportSheetName, "A1", lastHeader, headerStyle)
	_ = f.SetColWidth(exportSheetName, "D", "E", 40)
	_ = f.SetColWidth(exportSheetName, "G", "H", 22)

	for i, n := range rows {
		row := i + 2
		readAt := ""
		if n.ReadAt != nil {
			readAt = n.ReadAt.UTC().Format(time.RFC3339)
		}
		values := []interface{}{
			n.ID,
			n.UserID,
			string(n.Type),
			n.Title,
			n.Message,
			n.IsRead,
			readAt,
			n.CreatedAt.UTC().Format(time.RFC3339),
		}
		for col, v := range values {
			if err := f.SetCellValue(exportSheetName, cellName(col, row), v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Notifications exported", "user_id", req.UserID, "rows", len(rows))
	return buf.Bytes(), nil
}

// cellName converts a zero-based column and one-based row into "B3" form.
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col+1, row)
	return name
}
