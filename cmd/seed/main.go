package main

import (
	"flag"
	"log"

	"github.com/SummaryProject/SP-Backend/internal/api"
	"github.com/SummaryProject/SP-Backend/internal/auth"
	"github.com/SummaryProject/SP-Backend/internal/db"
	"github.com/SummaryProject/SP-Backend/internal/seeds"
	"github.com/joho/godotenv"
)

func main() {
	path := flag.String("file", "seeds.yaml", "path to the YAML seed file")
	flag.Parse()

	_ = godotenv.Load(".env.local")
	db.Connect()
	auth.Init()
	api.Init()

	if err := seeds.SeedAll(*path); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
