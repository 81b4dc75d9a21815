package domain

import "time"

// ItemType identifies which catalog collection an item reference points to.
type ItemType string

const (
	ItemTypeCourse    ItemType = "course"
	ItemTypeStoreItem ItemType = "storeItem"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeCourse || t == ItemTypeStoreItem
}

// Noun is the word used for the item type in user-facing messages.
func (t ItemType) Noun() string {
	if t == ItemTypeCourse {
		return "course"
	}
	return "item"
}

// NotFoundMessage is the 404 message for a missing catalog item of this type.
func (t ItemType) NotFoundMessage() string {
	if t == ItemTypeCourse {
		return "Course not found"
	}
	return "Store item not found"
}

type Course struct {
	ID            string    `json:"_id"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Instructor    string    `json:"instructor"`
	PriceMinor    int64     `json:"price"`
	IsFree        bool      `json:"isFree"`
	Category      string    `json:"category,omitempty"`
	Thumbnail     string    `json:"thumbnail,omitempty"`
	Duration      string    `json:"duration,omitempty"`
	Level         string    `json:"level,omitempty"`
	EnrolledCount int       `json:"enrolledCount"`
	Rating        float64   `json:"rating"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Lecture struct {
	ID              string `json:"_id"`
	CourseID        string `json:"courseId"`
	Title           string `json:"title"`
	VideoURL        string `json:"videoUrl,omitempty"`
	Position        int    `json:"order"`
	DurationSeconds int    `json:"duration"`
}

// StoreItemType is the kind of downloadable resource sold in the store.
type StoreItemType string

const (
	StoreItemPDF    StoreItemType = "pdf"
	StoreItemVideo  StoreItemType = "video"
	StoreItemBundle StoreItemType = "bundle"
	StoreItemOther  StoreItemType = "other"
)

type StoreItem struct {
	ID              string        `json:"_id"`
	Slug            string        `json:"slug"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	PriceMinor      int64         `json:"price"`
	FileURL         string        `json:"fileUrl,omitempty"`
	Category        string        `json:"category,omitempty"`
	Type            StoreItemType `json:"type"`
	Thumbnail       string        `json:"thumbnail,omitempty"`
	PurchaseCount   int           `json:"purchaseCount"`
	LastPurchasedAt *time.Time    `json:"lastPurchasedAt,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// CatalogItem is the type-independent view of a course or store item used by cart and checkout.
type CatalogItem struct {
	Type        ItemType `json:"itemType"`
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	PriceMinor  int64    `json:"price"`
}

func (c Course) AsItem() CatalogItem {
	return CatalogItem{
		Type:        ItemTypeCourse,
		ID:          c.ID,
		Name:        c.Title,
		Description: c.Description,
		Thumbnail:   c.Thumbnail,
		PriceMinor:  c.PriceMinor,
	}
}

func (s StoreItem) AsItem() CatalogItem {
	return CatalogItem{
		Type:        ItemTypeStoreItem,
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Thumbnail:   s.Thumbnail,
		PriceMinor:  s.PriceMinor,
	}
}

// ItemRef points at a catalog item without carrying its data.
type ItemRef struct {
	Type ItemType
	ID   string
}
