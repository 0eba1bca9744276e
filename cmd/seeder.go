package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"rent_payments", "payment_methods", "tenants", "properties", "landlords"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		proEmail := "mira@mail.com"
		if !rowExists(db, "SELECT 1 FROM landlords WHERE email = ?", proEmail) {
			err := db.Exec(`INSERT INTO landlords (email, name, password_hash, subscription_tier, payout_account_ref, payout_ready_at, is_active, created_at, updated_at)
				VALUES (?, ?, ?, 'pro', 'acct_seed_mira', now(), true, now(), now())`,
				proEmail, "Mira Hartono", string(hash)).Error
			if err != nil {
				log.Fatalf("failed to insert pro landlord: %v", err)
			}
			fmt.Println("Seeded pro landlord:", proEmail)
		}

		basicEmail := "bagas@mail.com"
		if !rowExists(db, "SELECT 1 FROM landlords WHERE email = ?", basicEmail) {
			err := db.Exec(`INSERT INTO landlords (email, name, password_hash, subscription_tier, is_active, created_at, updated_at)
				VALUES (?, ?, ?, 'basic', true, now(), now())`,
				basicEmail, "Bagas Wijaya", string(hash)).Error
			if err != nil {
				log.Fatalf("failed to insert basic landlord: %v", err)
			}
			fmt.Println("Seeded basic landlord:", basicEmail)
		}

		var landlordID int64
		if err := db.Raw("SELECT id FROM landlords WHERE email = ?", proEmail).Row().Scan(&landlordID); err != nil {
			log.Fatalf("failed to load pro landlord id: %v", err)
		}

		if !rowExists(db, "SELECT 1 FROM properties WHERE landlord_id = ?", landlordID) {
			err := db.Exec(`INSERT INTO properties (landlord_id, label, address, created_at, updated_at)
				VALUES (?, 'Unit 2B', '14 Carmine St', now(), now())`, landlordID).Error
			if err != nil {
				log.Fatalf("failed to insert property: %v", err)
			}
			fmt.Println("Seeded property for landlord", landlordID)
		}

		if !rowExists(db, "SELECT 1 FROM tenants WHERE landlord_id = ?", landlordID) {
			err := db.Exec(`INSERT INTO tenants (landlord_id, name, email, created_at, updated_at)
				VALUES (?, 'Jordan Pine', 'jordan@mail.com', now(), now())`, landlordID).Error
			if err != nil {
				log.Fatalf("failed to insert tenant: %v", err)
			}
			fmt.Println("Seeded tenant for landlord", landlordID)
		}

		fmt.Println("Seeding complete. Login with", proEmail, "or", basicEmail, "and password:", password)
	},
}

func rowExists(db *gorm.DB, query string, args ...interface{}) bool {
	var one int
	row := db.Raw(query, args...).Row()
	return row.Scan(&one) == nil
}
