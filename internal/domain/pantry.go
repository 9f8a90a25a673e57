package domain

// DateLayout is the storage format for expiry dates.
const DateLayout = "2006-01-02"

// CatalogEntry is a reference record of a known food product and its
// canonical expiry date. Immutable once loaded from the catalog store.
type CatalogEntry struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:100" json:"name"`
	ExpiryDate string `gorm:"column:expirydate" json:"expiryDate"`
}

// TableName keeps the original catalog table name.
func (CatalogEntry) TableName() string { return "food_catalog" }

// PantryItem is one persisted inventory record. Created per accepted
// receipt match, editable and deletable by id.
type PantryItem struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:100" json:"name"`
	ExpiryDate string `gorm:"column:expirydate" json:"expiryDate"`
}

// TableName keeps the original pantry table name.
func (PantryItem) TableName() string { return "pantry_items" }

// MatchResult is the outcome of fuzzy-matching one candidate name
// against the catalog. MatchedName and ExpiryDate are set only when
// the best score met the acceptance threshold.
type MatchResult struct {
	Candidate   string  `json:"candidate"`
	MatchedName string  `json:"matchedName,omitempty"`
	ExpiryDate  string  `json:"expiryDate,omitempty"`
	Score       float64 `json:"score"`
	Matched     bool    `json:"matched"`
}

// Notification is a soon-to-expire alert, recomputed on every query.
type Notification struct {
	ItemName string `json:"itemName"`
	DaysLeft int    `json:"daysLeft"`
}

// ReceiptResult is the outcome of processing one receipt upload.
// Unmatched holds candidate strings whose best catalog score fell
// below the threshold; they are surfaced for manual handling, never
// auto-inserted.
type ReceiptResult struct {
	Matched   []MatchResult `json:"matched"`
	Unmatched []string      `json:"unmatched"`
}
