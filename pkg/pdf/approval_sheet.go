package pdf

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// SheetData is everything rendered onto an approval sheet. The sheet is a
// generated cover page stored next to the uploaded file; the uploaded file
// itself is never modified.
type SheetData struct {
	DocumentID   string
	FileName     string
	Description  string
	OwnerName    string
	OwnerEmail   string
	Department   string
	Decision     string // APPROVED or REJECTED
	DecidedBy    string
	DeciderRole  string
	Reason       string // rejection reason, empty on approval
	DecidedAt    time.Time
	TrailEntries []TrailEntry
	// Signature is an optional PNG image of the decider's signature.
	Signature []byte
}

// TrailEntry is one line of the routing trail printed on the sheet.
type TrailEntry struct {
	At    time.Time
	Actor string
	Role  string
	What  string
}

// Generator renders approval sheets.
type Generator struct {
	institution string
}

func NewGenerator(institution string) *Generator {
	return &Generator{institution: institution}
}

// ApprovalSheet renders the sheet as a PDF and returns its bytes.
func (g *Generator) ApprovalSheet(data SheetData) ([]byte, error) {
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	doc.SetFont("Arial", "B", 16)
	doc.CellFormat(0, 10, g.institution, "", 1, "C", false, 0, "")
	doc.SetFont("Arial", "", 12)
	doc.CellFormat(0, 8, "Document Approval Sheet", "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetDrawColor(180, 180, 180)
	doc.Line(15, doc.GetY(), 195, doc.GetY())
	doc.Ln(6)

	field := func(label, value string) {
		doc.SetFont("Arial", "B", 10)
		doc.CellFormat(45, 7, label, "", 0, "L", false, 0, "")
		doc.SetFont("Arial", "", 10)
		doc.MultiCell(0, 7, value, "", "L", false)
	}
	field("Document", data.FileName)
	field("Reference", data.DocumentID)
	if data.Description != "" {
		field("Description", data.Description)
	}
	field("Submitted by", fmt.Sprintf("%s <%s>", data.OwnerName, data.OwnerEmail))
	if data.Department != "" {
		field("Department", data.Department)
	}
	doc.Ln(4)

	doc.SetFont("Arial", "B", 12)
	if data.Decision == "APPROVED" {
		doc.SetTextColor(0, 128, 0)
	} else {
		doc.SetTextColor(178, 34, 34)
	}
	doc.CellFormat(0, 9, fmt.Sprintf("%s by %s (%s)", data.Decision, data.DecidedBy, data.DeciderRole), "", 1, "L", false, 0, "")
	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Arial", "", 10)
	doc.CellFormat(0, 7, data.DecidedAt.Format("02 Jan 2006 15:04 MST"), "", 1, "L", false, 0, "")
	if data.Reason != "" {
		field("Reason", data.Reason)
	}

	if len(data.Signature) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		doc.RegisterImageOptionsReader("signature", opts, bytes.NewReader(data.Signature))
		doc.Ln(4)
		doc.SetFont("Arial", "B", 10)
		doc.CellFormat(0, 7, "Signature", "", 1, "L", false, 0, "")
		doc.ImageOptions("signature", 15, doc.GetY(), 45, 0, true, opts, 0, "")
		doc.Ln(4)
	}

	if len(data.TrailEntries) > 0 {
		doc.Ln(6)
		doc.SetFont("Arial", "B", 11)
		doc.CellFormat(0, 8, "Routing Trail", "", 1, "L", false, 0, "")
		doc.SetFillColor(235, 235, 235)
		doc.SetFont("Arial", "B", 9)
		doc.CellFormat(40, 7, "When", "1", 0, "L", true, 0, "")
		doc.CellFormat(55, 7, "Who", "1", 0, "L", true, 0, "")
		doc.CellFormat(35, 7, "Role", "1", 0, "L", true, 0, "")
		doc.CellFormat(50, 7, "Action", "1", 1, "L", true, 0, "")
		doc.SetFont("Arial", "", 9)
		for _, e := range data.TrailEntries {
			doc.CellFormat(40, 7, e.At.Format("02 Jan 2006 15:04"), "1", 0, "L", false, 0, "")
			doc.CellFormat(55, 7, e.Actor, "1", 0, "L", false, 0, "")
			doc.CellFormat(35, 7, e.Role, "1", 0, "L", false, 0, "")
			doc.CellFormat(50, 7, e.What, "1", 1, "L", false, 0, "")
		}
	}

	doc.SetY(-25)
	doc.SetFont("Arial", "I", 8)
	doc.SetTextColor(120, 120, 120)
	doc.CellFormat(0, 6, fmt.Sprintf("Generated %s", time.Now().Format("02 Jan 2006 15:04 MST")), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render approval sheet: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteApprovalSheet renders the sheet into w.
func (g *Generator) WriteApprovalSheet(w io.Writer, data SheetData) error {
	b, err := g.ApprovalSheet(data)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
