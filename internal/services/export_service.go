package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type exportService struct {
	quiz   QuizService
	logger *slog.Logger
}

func NewExportService(quizService QuizService, logger *slog.Logger) ExportService {
	return &exportService{
		quiz:   quizService,
		logger: logger,
	}
}

var resultExportHeaders = []string{
	"Result ID", "Student", "Email", "Score", "Performance", "Completed", "Submitted At",
}

func (s *exportService) ExportResultsXLSX(ctx context.Context, quizID uint, userID uint) ([]byte, error) {
	results, err := s.quiz.GetQuizResults(ctx, quizID, userID, repositories.ResultFilters{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range resultExportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, result := range results {
		for colIndex, value := range resultToRow(result) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported quiz results", "quiz_id", quizID, "format", "xlsx", "rows", len(results))

	return buf.Bytes(), nil
}

func (s *exportService) ExportResultsCSV(ctx context.Context, quizID uint, userID uint) ([]byte, error) {
	results, err := s.quiz.GetQuizResults(ctx, quizID, userID, repositories.ResultFilters{})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(resultExportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write(resultToRow(result)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.logger.Info("Exported quiz results", "quiz_id", quizID, "format", "csv", "rows", len(results))

	return buf.Bytes(), nil
}

func resultToRow(result *models.Result) []string {
	return []string{
		strconv.FormatUint(uint64(result.ID), 10),
		result.Student.Username,
		result.Student.Email,
		strconv.Itoa(result.Score),
		result.Performance,
		strconv.FormatBool(result.Completed),
		result.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
