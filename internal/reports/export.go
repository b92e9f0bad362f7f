package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatCSV   = "csv"
	FormatPDF   = "pdf"
	FormatExcel = "excel"
)

// Document is an export-ready report: a title and tabular rows, the first row
// being the header.
type Document struct {
	Title string
	Rows  [][]string
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch format {
	case FormatPDF:
		return "application/pdf"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Extension returns the file extension for a format.
func Extension(format string) string {
	if format == FormatExcel {
		return "xlsx"
	}
	return format
}

// EncodeCSV renders the document as CSV.
func EncodeCSV(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{doc.Title}); err != nil {
		return nil, err
	}
	for _, row := range doc.Rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePDF renders the document as a simple tabular PDF.
func EncodePDF(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, doc.Title)
	pdf.Ln(12)

	columns := 1
	if len(doc.Rows) > 0 {
		columns = len(doc.Rows[0])
	}
	width := 190.0 / float64(columns)

	for i, row := range doc.Rows {
		if i == 0 {
			pdf.SetFont("Arial", "B", 9)
		} else {
			pdf.SetFont("Arial", "", 9)
		}
		for _, cell := range row {
			pdf.CellFormat(width, 7, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("reports: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeExcel renders the document as an XLSX workbook.
func EncodeExcel(doc Document) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Report"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("reports: new sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	if err := f.SetCellValue(sheet, "A1", doc.Title); err != nil {
		return nil, err
	}
	for i, row := range doc.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("reports: render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// Encode renders the document in the requested format.
func Encode(doc Document, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return EncodeCSV(doc)
	case FormatPDF:
		return EncodePDF(doc)
	case FormatExcel:
		return EncodeExcel(doc)
	default:
		return nil, fmt.Errorf("reports: unsupported format %q", format)
	}
}
