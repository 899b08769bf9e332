package payroll

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer lays payslips out on a single A4 page.
type PDFRenderer struct{}

func hours(minutes int) string {
	return fmt.Sprintf("%.2f", float64(minutes)/60)
}

func (PDFRenderer) Render(data PayslipData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(data.IssuedAt)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Company: %s", data.CompanyName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", data.PeriodStart.Format("2006-01-02"), data.PeriodEnd.Format("2006-01-02")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s %s", data.EmployeeCode, data.EmployeeName))
	pdf.Ln(7)
	if data.AgencyName != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Agency: %s", data.AgencyName))
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Hours")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	for _, line := range []struct {
		label   string
		minutes int
	}{
		{"Regular", data.Minutes.Regular},
		{"Overtime", data.Minutes.Overtime},
		{"Night differential", data.Minutes.NightDiff},
		{"Holiday", data.Minutes.Holiday},
		{"Rest day", data.Minutes.RestDay},
	} {
		pdf.CellFormat(60, 7, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, hours(line.minutes), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	pdf.Cell(0, 8, fmt.Sprintf("Gross: %s", data.Gross.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Adjustments: %s", data.Adjustments.StringFixed(2)))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %s", data.Net.StringFixed(2)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
