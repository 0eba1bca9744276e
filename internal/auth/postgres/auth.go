package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rentably/rent-collection/internal/auth"
	"github.com/rentably/rent-collection/internal/core/datamodel/landlord"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForEmail(email string) (string, int64, error) {
	var passwordHash string
	var landlordID int64
	query := `SELECT id, password_hash FROM landlords WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&landlordID, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, fmt.Errorf("landlord not found")
		}
		return "", 0, err
	}
	return passwordHash, landlordID, nil
}

func (r *Repository) GetLandlordByID(landlordID int64) (*landlord.Landlord, error) {
	var l landlord.Landlord
	if err := r.db.First(&l, landlordID).Error; err != nil {
		return nil, err
	}
	return &l, nil
}
