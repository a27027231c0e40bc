package types

import (
	"time"

	"gorm.io/datatypes"
)

// Package is one stored upload. The ID is a time-plus-random string assigned
// at ingest and immutable afterwards; member-file payloads live in
// PackageFile rows, never inside the manifest column.
type Package struct {
	ID         string         `gorm:"primaryKey;column:id" json:"id"`
	Name       string         `gorm:"column:name;not null" json:"name"`
	UploadedAt time.Time      `gorm:"column:uploaded_at;not null" json:"uploaded_at"`
	Manifest   datatypes.JSON `gorm:"column:manifest" json:"manifest"`
	SizeBytes  int64          `gorm:"column:size_bytes;not null" json:"size_bytes"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
}

func (Package) TableName() string { return "package" }
