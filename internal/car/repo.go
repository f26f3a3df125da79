package car

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository is the persistence port used by Service. Save is atomic
// insert-or-update: updates re-check the row version at write time and fail
// with ErrStaleVersion on a lost race.
type Repository interface {
	FindByID(ctx context.Context, id uint64) (*Car, error)
	FindByVIN(ctx context.Context, vin string) (*Car, error)
	FindByMakeAndModel(ctx context.Context, make, model string) ([]Car, error)
	FindAll(ctx context.Context, page Page) ([]Car, int64, error)
	Save(ctx context.Context, c *Car) (*Car, error)
	ExistsByID(ctx context.Context, id uint64) (bool, error)
	DeleteByID(ctx context.Context, id uint64) error
}

// Repo is the GORM implementation of Repository.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) withCtx(ctx context.Context) *gorm.DB {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.WithContext(ctx)
}

func (r *Repo) FindByID(ctx context.Context, id uint64) (*Car, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Car
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindByVIN expects vin in canonical form; callers normalize at the boundary.
func (r *Repo) FindByVIN(ctx context.Context, vin string) (*Car, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var c Car
	if err := db.Where("vin = ?", vin).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *Repo) FindByMakeAndModel(ctx context.Context, make, model string) ([]Car, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	var cars []Car
	err := db.Where("make = ? AND model = ?", make, model).Order("id asc").Find(&cars).Error
	if err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *Repo) FindAll(ctx context.Context, page Page) ([]Car, int64, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, 0, fmt.Errorf("repo db is nil")
	}
	page = page.Normalized()

	q := db.Model(&Car{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var cars []Car
	err := q.Order(page.orderClause()).Offset(page.offset()).Limit(page.Size).Find(&cars).Error
	if err != nil {
		return nil, 0, err
	}
	return cars, total, nil
}

// Save inserts c when it has no id yet, otherwise updates it guarded by the
// stored row version. The returned row is reloaded from the store, so the
// caller always observes the refreshed version and timestamps.
func (r *Repo) Save(ctx context.Context, c *Car) (*Car, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return nil, fmt.Errorf("repo db is nil")
	}
	if c == nil {
		return nil, fmt.Errorf("car is nil")
	}

	if c.ID == 0 {
		c.Version = 0
		if err := db.Create(c).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrDuplicateVIN
			}
			return nil, err
		}
		return r.FindByID(ctx, c.ID)
	}

	// Single guarded UPDATE: the WHERE on row_version closes the
	// read-modify-write race even when the service pre-check passed.
	c.normalize()
	res := db.Model(&Car{}).
		Where("id = ? AND row_version = ?", c.ID, c.Version).
		Updates(map[string]any{
			"make":             c.Make,
			"model":            c.Model,
			"manufacture_year": c.ManufactureYear,
			"vin":              c.VIN,
			"odometer_km":      c.OdometerKm,
			"row_version":      gorm.Expr("row_version + 1"),
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateVIN
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		exists, err := r.ExistsByID(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrStaleVersion
	}
	return r.FindByID(ctx, c.ID)
}

func (r *Repo) ExistsByID(ctx context.Context, id uint64) (bool, error) {
	db := r.withCtx(ctx)
	if db == nil {
		return false, fmt.Errorf("repo db is nil")
	}
	var count int64
	if err := db.Model(&Car{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repo) DeleteByID(ctx context.Context, id uint64) error {
	db := r.withCtx(ctx)
	if db == nil {
		return fmt.Errorf("repo db is nil")
	}
	return db.Where("id = ?", id).Delete(&Car{}).Error
}
