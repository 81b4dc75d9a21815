// Package receipt renders PDF receipts for completed orders.
package receipt

import (
	"bytes"
	"fmt"

	"lms-commerce/internal/domain"

	"github.com/phpdave11/gofpdf"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// FormatMinor renders a minor-unit amount in major units with two decimals, e.g. 50000 INR -> "500.00 INR".
func FormatMinor(amount int64, currency string) string {
	return decimal.New(amount, -2).StringFixed(2) + " " + currency
}

// Render produces an A4 receipt with a QR code of the order id.
func Render(o domain.Order, u domain.User) ([]byte, error) {
	if o.PaymentStatus != domain.PaymentCompleted {
		return nil, errors.Errorf("order %s is %s", o.OrderID, o.PaymentStatus)
	}
	qrPNG, err := qrcode.Encode(o.OrderID, qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Wrap(err, "encode qr")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	date := o.CreatedAt
	if o.CompletedAt != nil {
		date = *o.CompletedAt
	}
	for _, line := range []string{
		"Order: " + o.OrderID,
		"Date: " + date.UTC().Format("02 Jan 2006 15:04 MST"),
		fmt.Sprintf("Customer: %s <%s>", u.Name, u.Email),
		"Status: " + string(o.PaymentStatus),
		"Method: " + string(o.PaymentMethod),
	} {
		pdf.Cell(0, 8, line)
		pdf.Ln(8)
	}
	if o.GatewayPaymentID != nil {
		pdf.Cell(0, 8, "Payment ID: "+*o.GatewayPaymentID)
		pdf.Ln(8)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(110, 8, "Item", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(50, 8, "Price", "B", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	for _, it := range o.Items {
		pdf.CellFormat(110, 8, it.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 8, FormatMinor(it.PriceMinor, o.Currency), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(130, 10, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(50, 10, FormatMinor(o.TotalMinor, o.Currency), "T", 1, "R", false, 0, "")

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "render pdf")
	}
	return buf.Bytes(), nil
}
