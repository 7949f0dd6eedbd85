package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/najah-ai/learner-service/internal/estimator"
	"github.com/najah-ai/learner-service/internal/models"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	progressSheet = "Progression"
	summarySheet  = "Synthese"
)

// ExportFile is a generated download.
type ExportFile struct {
	FileName    string               `json:"file_name"`
	ContentType string               `json:"content_type"`
	Data        []byte               `json:"-"`
	Summary     models.ExportSummary `json:"summary"`
}

func (s *trendService) ExportTrend(ctx context.Context, requester Requester, studentID string, req *TrendRequest) (file *ExportFile, err error) {
	log := s.logger.WithOperation(ctx, "export_trend", requester)
	defer func() { log.LogResult(studentID, "trend", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err = s.policy.checkStudentAccess(ctx, requester, studentID, "export_trend"); err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := s.analyze(ctx, studentID, s.params(req.Subject, req.TargetLevel, req.WindowDays))
	if err != nil {
		return nil, err
	}

	data, err := buildTrendWorkbook(report, s.deps.Config.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	summary := models.ExportSummary{
		StudentID:   studentID,
		Subject:     report.Subject,
		FileName:    exportFileName(studentID, report.Subject, s.deps.Now()),
		Rows:        len(report.Series),
		SizeBytes:   len(data),
		GeneratedAt: s.deps.Now(),
		Duration:    time.Since(start),
	}

	if err = s.policy.recordAudit(ctx, nil, requester, models.AuditTrendExported, "student", studentID,
		"Progress spreadsheet exported",
		map[string]interface{}{
			"subject":   report.Subject,
			"rows":      summary.Rows,
			"file_name": summary.FileName,
		}); err != nil {
		return nil, err
	}

	s.deps.Metrics.RecordExport()
	log.LogAudit(studentID, "trend_export", nil, summary, nil)

	return &ExportFile{
		FileName:    summary.FileName,
		ContentType: xlsxContentType,
		Data:        data,
		Summary:     summary,
	}, nil
}

// buildTrendWorkbook writes the daily series and the trend synthesis as two sheets.
func buildTrendWorkbook(report *TrendReport, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the progress sheet
	if err := f.SetSheetName("Sheet1", progressSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", progressSheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// Write headers
	headers := []interface{}{"Date", "Niveau", "Taux de réussite (%)", "Exercices"}
	if err := f.SetSheetRow(progressSheet, "A1", &headers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(progressSheet, "A1", "D1", headerStyle); err != nil {
		return nil, err
	}

	// Write data
	for i, day := range report.Series {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			day.Date.In(loc).Format("2006-01-02"),
			day.Level,
			roundTo(day.SuccessRate, 1),
			day.ExerciseCount,
		}
		if err := f.SetSheetRow(progressSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(progressSheet, "A", "D", 20); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet %s: %w", summarySheet, err)
	}

	predicted := "-"
	if d := report.Result.PredictedCompletionDate; d != nil {
		predicted = d.In(loc).Format("2006-01-02")
	}

	subject := report.Subject
	if subject == "" {
		subject = "toutes"
	}

	rows := [][]interface{}{
		{"Élève", report.StudentID},
		{"Matière", subject},
		{"Tendance", trendLabel(report.Result.Trend)},
		{"Taux de progression", roundTo(report.Result.ImprovementRate, 2)},
		{"Niveau actuel", report.CurrentLevel},
		{"Niveau cible", report.TargetLevel},
		{"Objectif atteint le", predicted},
		{"Jours analysés", len(report.Series)},
		{"Généré le", report.GeneratedAt.In(loc).Format(time.DateTime)},
		{},
		{"Recommandations"},
	}
	for _, rec := range report.Result.Recommendations {
		rows = append(rows, []interface{}{"", rec})
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 80); err != nil {
		return nil, err
	}

	// Save to buffer
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func trendLabel(trend estimator.Trend) string {
	switch trend {
	case estimator.TrendImproving:
		return "En progression"
	case estimator.TrendDeclining:
		return "En baisse"
	default:
		return "Stable"
	}
}

func exportFileName(studentID, subject string, at time.Time) string {
	parts := []string{"progression", sanitizeFileComponent(studentID)}
	if subject != "" {
		parts = append(parts, subject)
	}
	parts = append(parts, at.Format("20060102"))
	return strings.Join(parts, "_") + ".xlsx"
}

func sanitizeFileComponent(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
