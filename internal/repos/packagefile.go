package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/types"
)

type PackageFileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, files []*types.PackageFile) error
	GetByPackageIDAndPath(ctx context.Context, tx *gorm.DB, packageID, path string) (*types.PackageFile, error)
	ListPathsByPackageID(ctx context.Context, tx *gorm.DB, packageID string) ([]string, error)
	DeleteByPackageID(ctx context.Context, tx *gorm.DB, packageID string) error
}

type packageFileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPackageFileRepo(db *gorm.DB, baseLog *logger.Logger) PackageFileRepo {
	return &packageFileRepo{db: db, log: baseLog.With("repo", "PackageFileRepo")}
}

func (r *packageFileRepo) Create(ctx context.Context, tx *gorm.DB, files []*types.PackageFile) error {
	transaction, err := conn(tx, r.db)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&files).Error
}

// GetByPackageIDAndPath returns (nil, nil) on an absent path so callers can
// drive path-variant retries without error plumbing.
func (r *packageFileRepo) GetByPackageIDAndPath(ctx context.Context, tx *gorm.DB, packageID, path string) (*types.PackageFile, error) {
	transaction, err := conn(tx, r.db)
	if err != nil {
		return nil, err
	}
	var file types.PackageFile
	err = transaction.WithContext(ctx).
		Where("package_id = ? AND path = ?", packageID, path).
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *packageFileRepo) ListPathsByPackageID(ctx context.Context, tx *gorm.DB, packageID string) ([]string, error) {
	transaction, err := conn(tx, r.db)
	if err != nil {
		return nil, err
	}
	var paths []string
	if err := transaction.WithContext(ctx).
		Model(&types.PackageFile{}).
		Where("package_id = ?", packageID).
		Order("path ASC").
		Pluck("path", &paths).Error; err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *packageFileRepo) DeleteByPackageID(ctx context.Context, tx *gorm.DB, packageID string) error {
	transaction, err := conn(tx, r.db)
	if err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("package_id = ?", packageID).
		Delete(&types.PackageFile{}).Error
}
