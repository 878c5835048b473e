package models

import "time"

// Collection is one durable entry holding a full serialized entity
// collection as an ordered JSON array.
type Collection struct {
	Name      string `gorm:"primaryKey;size:64"`
	Data      string `gorm:"type:text"`
	Count     int    `gorm:"default:0"`
	Bytes     int    `gorm:"default:0"`
	UpdatedAt time.Time
}

// SessionEntry holds per-session values such as the logged-in identity.
type SessionEntry struct {
	Key       string `gorm:"primaryKey;size:64;column:session_key"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// Draft is a partially completed form saved for later.
type Draft struct {
	Form    string `gorm:"primaryKey;size:64"`
	Data    string `gorm:"type:json"`
	Step    int    `gorm:"default:0"`
	SavedAt time.Time
}

// QueuedSubmission is a form submission waiting for delivery.
type QueuedSubmission struct {
	Token         string `gorm:"primaryKey;size:36"`
	Tag           string `gorm:"size:64;index"`
	Kind          string `gorm:"size:32;not null"`
	Payload       string `gorm:"type:json"`
	Attempts      int    `gorm:"default:0"`
	LastError     string `gorm:"type:text"`
	CreatedAt     time.Time
	LastAttemptAt *time.Time
	DeadAt        *time.Time `gorm:"index"`
}

// AssetEntry is one cached response stored under a cache version.
type AssetEntry struct {
	Version  string `gorm:"primaryKey;size:128"`
	URL      string `gorm:"primaryKey;size:512"`
	Status   int    `gorm:"default:200"`
	Header   string `gorm:"type:json"`
	Body     []byte
	StoredAt time.Time
}
