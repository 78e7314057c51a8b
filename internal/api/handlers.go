package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/SummaryProject/SP-Backend/internal/httputil"
	"github.com/SummaryProject/SP-Backend/internal/utils"
)

type SummarizeRequest struct {
	Text  string `json:"text"`
	Token string `json:"token"`
}

type SummarizeResponse struct {
	Summary string `json:"summary"`
}

// SummarizeHandler runs behind TokenAuthMiddleware. The accounting
// append happens only after the summarizer succeeds, and an accounting
// failure overrides the successful result.
func SummarizeHandler(engine Engine, recorder Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SummarizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "Invalid JSON Body")
			return
		}
		if req.Text == "" {
			httputil.WriteError(w, http.StatusBadRequest, "Text is required")
			return
		}

		tokenString, ok := utils.GetAPITokenFromContext(r.Context())
		if !ok {
			tokenString = req.Token
		}

		summary, err := engine.Summarize(r.Context(), req.Text)
		if err != nil {
			switch {
			case errors.Is(err, ErrProcessingTimeout):
				log.Printf("[summarize] timeout: %v", err)
			case errors.Is(err, ErrSubprocess):
				log.Printf("[summarize] subprocess error: %v", err)
			case errors.Is(err, ErrProcessing):
				log.Printf("[summarize] unparseable output: %v", err)
			default:
				log.Printf("[summarize] error: %v", err)
			}
			httputil.WriteError(w, http.StatusInternalServerError, "An error occurred in summary processing")
			return
		}

		ok, err = recorder.Record(tokenString, r.Method, req.Text)
		if errors.Is(err, ErrQuotaExceeded) {
			// Lost the race to a concurrent request on the same token.
			httputil.WriteError(w, http.StatusBadRequest, "You have reached the max API call amount")
			return
		}
		if err != nil || !ok {
			log.Printf("[summarize] accounting failure: ok=%v err=%v", ok, err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to save api call")
			return
		}

		httputil.WriteJSON(w, http.StatusOK, SummarizeResponse{Summary: summary})
	}
}
