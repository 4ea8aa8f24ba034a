package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData is everything printed on a retirement certificate.
type CertificateData struct {
	CreditID              string
	ProjectName           string
	EcosystemType         string
	Location              string
	OwnerName             string
	CarbonAmount          int
	VintageYear           int
	CertificationStandard string
	Reason                string
	RetiredAt             time.Time
	TransactionHash       string
}

type Generator interface {
	RetirementCertificate(ctx context.Context, data CertificateData) (io.Reader, error)
}

type fpdfGenerator struct{}

func NewGenerator() Generator {
	return &fpdfGenerator{}
}

func (g *fpdfGenerator) RetirementCertificate(ctx context.Context, data CertificateData) (io.Reader, error) {
	doc := gofpdf.New("L", "mm", "A4", "")
	doc.SetMargins(20, 20, 20)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 26)
	doc.CellFormat(0, 16, "Certificate of Carbon Credit Retirement", "", 1, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 12)
	doc.CellFormat(0, 8, "Blue Carbon Registry", "", 1, "C", false, 0, "")
	doc.Ln(8)

	doc.SetFont("Helvetica", "", 13)
	doc.MultiCell(0, 8, fmt.Sprintf(
		"This certifies that %d tons of CO2 (vintage %d, %s standard) from the project %q have been permanently retired by %s.",
		data.CarbonAmount, data.VintageYear, data.CertificationStandard, data.ProjectName, data.OwnerName,
	), "", "C", false)
	doc.Ln(6)

	rows := [][2]string{
		{"Credit ID", data.CreditID},
		{"Project", data.ProjectName},
		{"Ecosystem", data.EcosystemType},
		{"Location", data.Location},
		{"Retirement reason", data.Reason},
		{"Retired on", data.RetiredAt.Format("2 January 2006")},
		{"Transaction", data.TransactionHash},
	}
	doc.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		doc.SetFont("Helvetica", "B", 11)
		doc.CellFormat(60, 8, row[0], "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 11)
		doc.CellFormat(0, 8, row[1], "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering certificate: %w", err)
	}
	return &buf, nil
}
