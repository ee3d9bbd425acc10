package events

import "time"

// VisitorEvent is a single recorded page view in the event log.
type VisitorEvent struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	VisitorID       string `gorm:"index;size:36;not null"`
	PagePath        string `gorm:"index;not null"`
	Referrer        string
	UserAgent       string
	IPFingerprint   string    `gorm:"size:16"`
	DeviceType      string    `gorm:"index"`
	Browser         string    `gorm:"index"`
	OperatingSystem string    `gorm:"index"`
	Country         string    `gorm:"index"`
	CreatedAt       time.Time `gorm:"index;not null"`
}

// PageViewCounter holds the running page view total per path. Rows are
// only ever touched through an atomic upsert so concurrent ingestion
// never loses increments.
type PageViewCounter struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	PagePath  string `gorm:"uniqueIndex;not null"`
	Count     int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
