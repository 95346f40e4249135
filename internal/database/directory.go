package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/votehubph/backend/internal/models"
)

// Directory serves the administrative hierarchy from Postgres, in id order.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Regions(ctx context.Context) ([]models.Region, error) {
	var out []models.Region
	err := d.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (d *Directory) Cities(ctx context.Context, regionID int) ([]models.City, error) {
	var out []models.City
	err := d.db.WithContext(ctx).Where("region_id = ?", regionID).Order("id").Find(&out).Error
	return out, err
}

func (d *Directory) Districts(ctx context.Context, cityID int) ([]models.District, error) {
	var out []models.District
	err := d.db.WithContext(ctx).Where("parent_city_id = ?", cityID).Order("id").Find(&out).Error
	return out, err
}

func (d *Directory) Barangays(ctx context.Context, cityID, districtID int) ([]models.Barangay, error) {
	q := d.db.WithContext(ctx).Where("city_id = ?", cityID)
	if districtID != 0 {
		q = q.Where("district_id = ?", districtID)
	}
	var out []models.Barangay
	err := q.Order("id").Find(&out).Error
	return out, err
}
