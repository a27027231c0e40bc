package types

import (
	"time"

	"github.com/google/uuid"
)

// PackageFile is one member file of a stored package. (package id, path) is
// unique and the payload is content-immutable once written.
type PackageFile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PackageID string    `gorm:"column:package_id;not null;index;uniqueIndex:idx_package_file_pkg_path" json:"package_id"`
	Package   *Package  `gorm:"constraint:OnDelete:CASCADE;foreignKey:PackageID;references:ID" json:"package,omitempty"`
	Path      string    `gorm:"column:path;not null;uniqueIndex:idx_package_file_pkg_path" json:"path"`
	Payload   []byte    `gorm:"column:payload" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PackageFile) TableName() string { return "package_file" }
