// Package report reads and writes the admin spreadsheets.
package report

import (
	"fmt"
	"io"

	"github.com/pasteldream/pastel-backend/internal/app/service"
	"github.com/xuri/excelize/v2"
)

const ordersSheet = "Orders"

var orderHeaders = []string{
	"Order ID", "Placed At", "Customer", "Phone", "Email", "Status",
	"Payment Method", "Payment Status", "Items", "Total (Rs.)",
}

// WriteOrders renders orders as an XLSX workbook, one row per order.
func WriteOrders(w io.Writer, orders []service.AdminOrder) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ordersSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeaders); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(ordersSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, o := range orders {
		var name, phone, email string
		if o.Customer != nil {
			name, phone, email = o.Customer.Name, o.Customer.Phone, o.Customer.Email
		}
		items := 0
		for _, it := range o.Items {
			items += it.Quantity
		}
		total, _ := o.TotalAmount.Round(2).Float64()

		row := []interface{}{
			o.ID,
			o.CreatedAt.Format("2006-01-02 15:04"),
			name,
			phone,
			email,
			string(o.Status),
			o.PaymentMethod,
			string(o.PaymentStatus),
			items,
			total,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write order %s: %w", o.ID, err)
		}
	}

	if err := f.SetColWidth(ordersSheet, "A", "A", 38); err != nil {
		return err
	}
	return f.Write(w)
}
