package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/teamproxima/proxima/internal/models"
	"github.com/teamproxima/proxima/internal/security"
	"github.com/teamproxima/proxima/pkg/utils"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Bulk-loads staging users from an Excel sheet. Expected columns:
// nickname | phone. Phone numbers are normalized, hashed and encrypted the
// same way signup does, so contact matching works against seeded data.
func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if len(os.Args) < 2 {
		log.Fatal("usage: seed_users <users.xlsx>")
	}

	hashKey := os.Getenv("PHONE_HASH_KEY")
	encKey := []byte(os.Getenv("PHONE_ENC_KEY"))
	countryCode := os.Getenv("DEFAULT_COUNTRY_CODE")
	if countryCode == "" {
		countryCode = "82"
	}
	if hashKey == "" || len(encKey) != 32 {
		log.Fatal("PHONE_HASH_KEY and a 32-byte PHONE_ENC_KEY are required")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database:", err)
	}

	f, err := excelize.OpenFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	totalImported := 0

	for _, sheetName := range f.GetSheetList() {
		fmt.Printf("Importing sheet: %s\n", sheetName)
		rows, err := f.GetRows(sheetName)
		if err != nil {
			fmt.Printf("Error reading sheet %s: %v\n", sheetName, err)
			continue
		}

		for i, row := range rows {
			if i == 0 || len(row) < 2 { // Skip header or invalid rows
				continue
			}

			// row[0]: nickname
			// row[1]: phone (any format)
			nickname := row[0]
			phone := utils.NormalizePhoneNumber(row[1], countryCode)
			if nickname == "" || phone == "" {
				fmt.Printf("Skipping row %d: unusable nickname or phone\n", i+1)
				continue
			}

			encrypted, err := security.EncryptAES256(phone, encKey)
			if err != nil {
				log.Fatal("encryption failed:", err)
			}
			searchHash := security.HashPhoneNumber(phone, hashKey)

			user := models.User{
				Nickname:        nickname,
				Provider:        models.ProviderPhone,
				ProviderID:      fmt.Sprintf("seed_%s", searchHash[:12]),
				PhoneEncrypted:  encrypted,
				PhoneSearchHash: &searchHash,
				CountryCode:     countryCode,
				Status:          models.UserStatusActive,
			}

			var existing models.User
			err = db.Where("phone_search_hash = ?", searchHash).First(&existing).Error
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&user).Error; err != nil {
					fmt.Printf("Error inserting row %d: %v\n", i+1, err)
					continue
				}
				totalImported++
			}
		}
	}

	fmt.Printf("Done. Imported %d users.\n", totalImported)
}
