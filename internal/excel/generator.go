package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shipbridge/shipbridge/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.HistoryReport) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "History"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Shipper")
	set("B1", report.ShipperName)
	set("A2", "Generated")
	set("B2", report.GeneratedAt.Format("2006-01-02 15:04"))
	set("A3", "Shipments")
	set("B3", len(report.Shipments))

	headers := []string{"Title", "From", "To", "Status", "Carrier", "Agreed price", "Currency", "Delivered", "Rating"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 5)
		if err != nil {
			return nil, err
		}
		set(cell, header)
	}

	for rowIdx, row := range report.Shipments {
		values := []interface{}{
			row.Title,
			row.PickupCity,
			row.DeliveryCity,
			string(row.Status),
			stringOrDash(row.CarrierName),
			priceOrDash(row.AgreedPrice),
			row.Currency,
			timeOrDash(row.DeliveredAt),
			ratingOrDash(row.RatingScore),
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+6)
			if err != nil {
				return nil, err
			}
			set(cell, value)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "C", 18)
	_ = file.SetColWidth(sheet, "E", "E", 24)
	_ = file.SetColWidth(sheet, "F", "H", 16)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stringOrDash(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}

func priceOrDash(value *float64) interface{} {
	if value == nil {
		return "-"
	}
	return *value
}

func timeOrDash(value *time.Time) string {
	if value == nil {
		return "-"
	}
	return value.Format("2006-01-02")
}

func ratingOrDash(value *int) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%d/5", *value)
}
