package export

import (
	"fmt"
	"io"

	"lendshare/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// Exporter renders booking reports as Excel workbooks.
type Exporter struct {
	logger *zerolog.Logger
}

func NewExporter(logger *zerolog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// WriteOwnerBookings writes an xlsx report of the owner's bookings to w.
func (e *Exporter) WriteOwnerBookings(w io.Writer, bookings []*models.BookingView) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Item", "Booker", "Email", "Start", "End", "Status"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), b.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), b.Item.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), b.Booker.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), b.Booker.Email)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), b.Start.Format(models.DateTimeLayout))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), b.End.Format(models.DateTimeLayout))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), b.Status)
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "D", 25)
	_ = f.SetColWidth(sheetName, "E", "F", 22)
	_ = f.SetColWidth(sheetName, "G", "G", 12)

	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}

	e.logger.Info().Int("bookings", len(bookings)).Msg("bookings report generated")
	return nil
}
