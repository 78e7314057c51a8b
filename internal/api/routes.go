package api

import (
	"net/http"
	"os"

	"github.com/SummaryProject/SP-Backend/internal/db"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	store := TokenStore{DB: db.DB}
	verifier := Verifier{Secret: []byte(os.Getenv("JWT_SECRET_KEY"))}
	engine := NewSummarizer(LoadFromEnv())
	recorder := Recorder{Store: store}

	r.Group(func(r chi.Router) {
		r.Use(TokenAuthMiddleware(store, verifier))
		r.Post("/summarize", SummarizeHandler(engine, recorder))
	})

	return r
}
