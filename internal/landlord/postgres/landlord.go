package postgres

import (
	"gorm.io/gorm"

	datamodel "github.com/rentably/rent-collection/internal/core/datamodel/landlord"
)

type LandlordRepository struct {
	db *gorm.DB
}

func NewLandlordRepository(db *gorm.DB) *LandlordRepository {
	return &LandlordRepository{db: db}
}

func (r *LandlordRepository) GetByID(landlordID int64) (*datamodel.Landlord, error) {
	var l datamodel.Landlord
	if err := r.db.First(&l, landlordID).Error; err != nil {
		return nil, err
	}
	return &l, nil
}
