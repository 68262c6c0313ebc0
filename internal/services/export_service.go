package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/athul-jose00/Smart-Quiz-Portal-sub000/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportQuizResults writes every attempt for a quiz into a spreadsheet,
// one row per attempt, ordered by student name then attempt number.
// Returns the workbook and the suggested download filename.
func (s *exportService) ExportQuizResults(ctx context.Context, quizID uint, requesterID string) (*excelize.File, string, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrQuizNotFound
		}
		return nil, "", fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatedBy != requesterID {
		return nil, "", NewPermissionError(requesterID, quizID, "quiz", "export", "only the quiz creator can export results")
	}

	rows, err := s.repo.Result().GetScoreRows(ctx, nil, quizID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load score rows: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to create stream writer: %w", err)
	}

	headers := []interface{}{"Student", "Email", "Attempt", "Score", "Percentage", "Completed At"}
	if err := sw.SetRow("A1", headers); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+2)
		err := sw.SetRow(cell, []interface{}{
			row.StudentName,
			row.StudentEmail,
			row.AttemptNumber,
			row.TotalScore,
			row.Percentage,
			row.CompletedAt.Format("2006-01-02 15:04:05"),
		})
		if err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to flush spreadsheet: %w", err)
	}

	s.logger.Info("Quiz results exported",
		"quiz_id", quizID,
		"teacher_id", requesterID,
		"rows", len(rows))

	return f, exportFilename(quiz.Title), nil
}

func exportFilename(title string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, title)
	if safe == "" {
		safe = "quiz"
	}
	return safe + "_results.xlsx"
}
