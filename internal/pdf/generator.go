package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/shipbridge/shipbridge/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders the waybill for a shipment with an engaged carrier.
func (g *Generator) Generate(doc model.WaybillDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "WAYBILL", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Shipment %s", doc.Shipment.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued %s", time.Now().Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addPartyBlock(pdf, "Shipper", doc.Shipper)
	pdf.Ln(2)
	addPartyBlock(pdf, "Carrier", doc.Carrier)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Route", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("From: %s, %s %s", doc.Shipment.PickupAddress, doc.Shipment.PickupCity, doc.Shipment.PickupCountry), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("To: %s, %s %s", doc.Shipment.DeliveryAddress, doc.Shipment.DeliveryCity, doc.Shipment.DeliveryCountry), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Cargo", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)

	headers := []string{"Description", "Weight (kg)", "Dimensions (cm)", "Qty", "Mode"}
	widths := []float64{70, 28, 42, 15, 25}
	drawTableRow(pdf, headers, widths, true)
	drawTableRow(pdf, []string{
		doc.Shipment.CargoDescription,
		fmt.Sprintf("%.1f", doc.Shipment.WeightKg),
		fmt.Sprintf("%.0fx%.0fx%.0f", doc.Shipment.LengthCm, doc.Shipment.WidthCm, doc.Shipment.HeightCm),
		fmt.Sprintf("%d", doc.Shipment.Quantity),
		string(doc.Shipment.TransportMode),
	}, widths, false)

	if doc.Shipment.HandlingInstructions != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, "Handling: "+doc.Shipment.HandlingInstructions, "", "L", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Agreed terms", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Price: %.2f %s", doc.Bid.Price, doc.Bid.Currency), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "ETA: "+doc.Bid.ETA, "", 1, "L", false, 0, "")
	if doc.Shipment.Insured {
		pdf.CellFormat(0, 6, "Cargo is insured", "", 1, "L", false, 0, "")
	}
	if doc.Shipment.DeliveredAt != nil {
		pdf.CellFormat(0, 6, "Delivered: "+doc.Shipment.DeliveredAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	}

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(90, 6, "Shipper signature: ______________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(90, 6, "Carrier signature: ______________________", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addPartyBlock(pdf *gofpdf.Fpdf, label string, user model.User) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, label, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, user.Name, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, user.Email, "", 1, "L", false, 0, "")
}

func drawTableRow(pdf *gofpdf.Fpdf, cells []string, widths []float64, header bool) {
	if header {
		pdf.SetFont("Helvetica", "B", 10)
	} else {
		pdf.SetFont("Helvetica", "", 10)
	}
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 7, cell, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}
