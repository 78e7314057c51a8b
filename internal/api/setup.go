package api

import (
	"log"

	"github.com/SummaryProject/SP-Backend/internal/db"
)

func Init() {
	if err := db.EnsureSchema(db.DB, "api"); err != nil {
		log.Fatal("Failed to ensure schema api: ", err)
	}

	if err := db.DB.AutoMigrate(&Token{}, &Call{}); err != nil {
		log.Fatal("Failed to auto-migrate tables", err)
	}

	if _, err := SecretFromEnv(); err != nil {
		log.Fatal("JWT secret missing: ", err)
	}

	if err := LoadFromEnv().Validate(); err != nil {
		log.Fatal("Summarizer config invalid: ", err)
	}
}
