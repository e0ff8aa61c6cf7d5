package models

import (
	"time"

	"gorm.io/gorm"
)

// FileLog marks a receiving file as processed so the processor never
// allocates the same file twice.
type FileLog struct {
	gorm.Model
	Filename     string `gorm:"unique;not null"`
	DateModified time.Time
}
