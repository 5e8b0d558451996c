package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"library-backend/internal/domains/book"
)

const booksSheet = "Books"

var bookHeaders = []string{
	"ID",
	"Title",
	"ISBN",
	"Category",
	"Available",
	"Borrow Count",
	"Authors",
	"Created At",
}

// Export renders one page of the filtered catalogue. The page size is capped
// by the filter's MaxPageSize.
func (s *bookService) Export(ctx context.Context, filter book.BookFilter) (*excelize.File, error) {
	books, _, err := s.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	f, err := buildBooksFile(books)
	if err != nil {
		return nil, fmt.Errorf("failed to build excel file: %w", err)
	}
	return f, nil
}

func buildBooksFile(books []book.Book) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", booksSheet); err != nil {
		return nil, err
	}

	for col, header := range bookHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(booksSheet, cell, header)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(bookHeaders), 1)
		f.SetCellStyle(booksSheet, "A1", last, headerStyle)
	}

	for i, b := range books {
		row := i + 2
		cell := func(col int) string {
			name, _ := excelize.CoordinatesToCellName(col, row)
			return name
		}
		f.SetCellValue(booksSheet, cell(1), b.ID.String())
		f.SetCellValue(booksSheet, cell(2), b.Title)
		f.SetCellValue(booksSheet, cell(3), b.ISBN)
		f.SetCellValue(booksSheet, cell(4), b.Category)
		f.SetCellValue(booksSheet, cell(5), b.Available)
		f.SetCellValue(booksSheet, cell(6), b.BorrowCount)
		f.SetCellValue(booksSheet, cell(7), len(b.AuthorIDs))
		f.SetCellValue(booksSheet, cell(8), b.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	f.SetColWidth(booksSheet, "A", "A", 38)
	f.SetColWidth(booksSheet, "B", "B", 40)
	return f, nil
}
