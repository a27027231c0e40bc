package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/types"
)

type PackageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, pkg *types.Package) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Package, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Package, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id string) error
}

type packageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPackageRepo(db *gorm.DB, baseLog *logger.Logger) PackageRepo {
	return &packageRepo{db: db, log: baseLog.With("repo", "PackageRepo")}
}

func (r *packageRepo) Create(ctx context.Context, tx *gorm.DB, pkg *types.Package) error {
	transaction, err := conn(tx, r.db)
	if err != nil {
		return err
	}
	return transaction.WithContext(ctx).Create(pkg).Error
}

// GetByID returns (nil, nil) when the package is absent; absence is not an
// error at this layer.
func (r *packageRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.Package, error) {
	transaction, err := conn(tx, r.db)
	if err != nil {
		return nil, err
	}
	var pkg types.Package
	err = transaction.WithContext(ctx).Where("id = ?", id).First(&pkg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *packageRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Package, error) {
	transaction, err := conn(tx, r.db)
	if err != nil {
		return nil, err
	}
	var results []*types.Package
	if err := transaction.WithContext(ctx).
		Order("uploaded_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *packageRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id string) error {
	transaction, err := conn(tx, r.db)
	if err != nil {
		return err
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Package{}).Error
}
