package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/SummaryProject/SP-Backend/internal/api"
	"github.com/SummaryProject/SP-Backend/internal/auth"
	"github.com/SummaryProject/SP-Backend/internal/db"
	"github.com/SummaryProject/SP-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	response := "Server is up!"
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, response)
}

func main() {
	_ = godotenv.Load(".env.local")
	db.Connect()

	port := os.Getenv("PORT")
	if port == "" {
		port = "5500"
	}

	auth.Init()
	api.Init()

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes())
	r.Mount("/api/v1", api.SetupRoutes())

	fmt.Println("Server listening on port :" + port + "...")

	http.ListenAndServe("0.0.0.0:"+port, r)
}
