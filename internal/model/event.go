package model

import (
	"time"

	"github.com/google/uuid"
)

// Event name constants. Anything else is rejected at ingestion.
const (
	EventPageView    = "page_view"
	EventPDFDownload = "invoice_pdf_download"
)

// Event is one accepted analytics hit. The client IP is never stored; only a
// salted SHA-256 hash used for rate limiting.
type Event struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VID      string    `gorm:"type:varchar(64);not null;index" json:"vid"`
	Event    string    `gorm:"type:varchar(40);not null;index" json:"event"`
	Path     string    `gorm:"type:varchar(255)" json:"path"`
	Referrer string    `gorm:"type:varchar(255)" json:"referrer"`
	UA       string    `gorm:"type:varchar(255)" json:"ua"`
	IPHash   string    `gorm:"type:varchar(64);index" json:"-"`
	MetaJSON string    `gorm:"type:text" json:"meta_json"`
	TS       time.Time `gorm:"autoCreateTime;index" json:"ts"`
}
