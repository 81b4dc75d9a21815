package domain

import "time"

// Cart is the per-user container for items awaiting checkout. Items are stored separately.
type Cart struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ItemSnapshot is the catalog data captured when the item was added.
type ItemSnapshot struct {
	Name        string `json:"name"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Description string `json:"description,omitempty"`
}

type CartItem struct {
	ID         string       `json:"_id"`
	CartID     string       `json:"cartId"`
	ItemType   ItemType     `json:"itemType"`
	ItemID     string       `json:"itemId"`
	PriceMinor int64        `json:"price"`
	Quantity   int          `json:"quantity"`
	Snapshot   ItemSnapshot `json:"itemSnapshot"`
	AddedAt    time.Time    `json:"addedAt"`
}

func (i CartItem) Ref() ItemRef {
	return ItemRef{Type: i.ItemType, ID: i.ItemID}
}

// CartTotal sums price times quantity over the given items.
func CartTotal(items []CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.PriceMinor * int64(it.Quantity)
	}
	return total
}
