package receipt

import (
	"bytes"
	"testing"
	"time"

	"lms-commerce/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMinor(t *testing.T) {
	assert.Equal(t, "500.00 INR", FormatMinor(50000, "INR"))
	assert.Equal(t, "0.00 INR", FormatMinor(0, "INR"))
	assert.Equal(t, "12.05 USD", FormatMinor(1205, "USD"))
}

func TestRender(t *testing.T) {
	done := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	payID := "pay_1"
	o := domain.Order{
		OrderID:          "ORD-1714557600000-ABC123",
		PaymentStatus:    domain.PaymentCompleted,
		PaymentMethod:    domain.MethodRazorpay,
		Currency:         "INR",
		TotalMinor:       50000,
		CompletedAt:      &done,
		GatewayPaymentID: &payID,
		Items: []domain.OrderItem{
			{ItemType: domain.ItemTypeCourse, ItemID: "c1", Name: "Go in Practice", PriceMinor: 50000, Quantity: 1},
			{ItemType: domain.ItemTypeStoreItem, ItemID: "s1", Name: "Cheat sheet", PriceMinor: 0, Quantity: 1},
		},
	}
	pdf, err := Render(o, domain.User{Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRenderRejectsPending(t *testing.T) {
	_, err := Render(domain.Order{OrderID: "ORD-1-X", PaymentStatus: domain.PaymentPending}, domain.User{})
	require.Error(t, err)
}
