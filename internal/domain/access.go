package domain

import (
	"math"
	"time"
)

// UserPurchase is the ownership ledger row. At most one exists per (user, item, type).
type UserPurchase struct {
	ID          string     `json:"_id"`
	UserID      string     `json:"userId"`
	ItemType    ItemType   `json:"itemType"`
	ItemID      string     `json:"itemId"`
	OrderID     string     `json:"orderId"`
	PurchasedAt time.Time  `json:"purchasedAt"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type Enrollment struct {
	ID                string     `json:"_id"`
	UserID            string     `json:"userId"`
	CourseID          string     `json:"courseId"`
	EnrolledAt        time.Time  `json:"enrolledAt"`
	Progress          int        `json:"progress"`
	CompletedLectures []string   `json:"completedLectures"`
	OrderID           *string    `json:"orderId,omitempty"`
	IsPaid            bool       `json:"isPaid"`
	PurchasedAt       *time.Time `json:"purchasedAt,omitempty"`
}

// Progress returns the rounded completion percentage, clamped to 0..100.
func Progress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := int(math.Round(float64(completed) / float64(total) * 100))
	if p > 100 {
		return 100
	}
	return p
}
