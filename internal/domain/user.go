package domain

import "time"

// User is a registered learner or admin.
type User struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	IsAdmin        bool       `json:"isAdmin"`
	PhoneNumber    string     `json:"phoneNumber,omitempty"`
	EmailVerified  bool       `json:"emailVerified"`
	PurchaseCount  int        `json:"purchaseCount"`
	LastPurchaseAt *time.Time `json:"lastPurchaseAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}
