package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

var (
	pdfHeader    = []string{"Date", "Description", "Category", "Amount"}
	pdfColWidths = []float64{35, 75, 40, 30}
)

// PDFWriter lays out a single-table report with a total line underneath.
type PDFWriter struct {
	// Compress turns on stream compression; tests disable it to read text back.
	Compress bool
	// Created pins the document creation and modification dates when set,
	// which makes the output byte-for-byte reproducible.
	Created time.Time
}

func (p PDFWriter) Write(w io.Writer, rows []Row) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(p.Compress)
	doc.SetCatalogSort(true)
	if !p.Created.IsZero() {
		doc.SetCreationDate(p.Created)
		doc.SetModificationDate(p.Created)
	}
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "", 16)
	doc.Text(20, 20, ReportTitle)
	doc.SetY(30)

	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(3, 59, 74)
	doc.SetTextColor(255, 255, 255)
	for i, h := range pdfHeader {
		doc.CellFormat(pdfColWidths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(0, 0, 0)
	for _, r := range rows {
		cells := []string{r.Date, r.Description, r.Category, r.Amount}
		for i, c := range cells {
			doc.CellFormat(pdfColWidths[i], 7, c, "1", 0, "L", false, 0, "")
		}
		doc.Ln(-1)
	}

	doc.Ln(10)
	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, TotalLine(rows), "", 1, "L", false, 0, "")

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
