package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"library-backend/internal/domains/borrowing"
)

const overdueSheet = "Overdue"

var overdueHeaders = []string{
	"Borrowing ID",
	"Member",
	"Email",
	"Book",
	"Due Date",
	"Status",
	"Days Overdue",
	"Accrued Fine",
}

// OverdueReport lists every overdue loan with the fine accrued so far,
// followed by a summary sheet of the borrowing stats.
func (s *borrowingService) OverdueReport(ctx context.Context) (*excelize.File, error) {
	items, err := s.ListOverdue(ctx, defaultOverdueLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue borrowings: %w", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load borrowing stats: %w", err)
	}

	f, err := buildOverdueFile(items, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}
	return f, nil
}

func buildOverdueFile(items []borrowing.OverdueItem, stats *borrowing.Stats) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", overdueSheet); err != nil {
		return nil, err
	}

	for col, header := range overdueHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(overdueSheet, cell, header)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(overdueHeaders), 1)
		f.SetCellStyle(overdueSheet, "A1", last, headerStyle)
	}

	for i, item := range items {
		row := i + 2
		cell := func(col int) string {
			name, _ := excelize.CoordinatesToCellName(col, row)
			return name
		}
		f.SetCellValue(overdueSheet, cell(1), item.BorrowingID.String())
		f.SetCellValue(overdueSheet, cell(2), item.MemberName)
		f.SetCellValue(overdueSheet, cell(3), item.MemberEmail)
		f.SetCellValue(overdueSheet, cell(4), item.BookTitle)
		f.SetCellValue(overdueSheet, cell(5), item.DueDate.Format(borrowing.DateLayout))
		f.SetCellValue(overdueSheet, cell(6), string(item.Status))
		f.SetCellValue(overdueSheet, cell(7), item.DaysOverdue)
		f.SetCellValue(overdueSheet, cell(8), item.AccruedFine.InexactFloat64())
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	f.SetCellValue(summarySheet, "A1", "Status")
	f.SetCellValue(summarySheet, "B1", "Count")
	row := 2
	for _, st := range []borrowing.Status{borrowing.StatusBorrowed, borrowing.StatusOverdue, borrowing.StatusReturned, borrowing.StatusLost} {
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), string(st))
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), stats.ByStatus[st])
		row++
	}
	f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), "Total fines")
	f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), stats.TotalFines.InexactFloat64())

	return f, nil
}
