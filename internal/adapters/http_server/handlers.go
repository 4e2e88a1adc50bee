// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
)

type Handlers struct {
	Accounts *app.AccountService
	Scan     *app.ScanService
	Analysis *app.AnalysisService
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/accounts", h.listAccounts)
	s.mux.Post("/v1/accounts", h.createAccount)
	s.mux.Delete("/v1/accounts/{id}", h.deleteAccount)
	s.mux.Post("/v1/accounts/{id}/scan", h.scanAccount)
	s.mux.Get("/v1/accounts/{id}/analysis", h.getAnalysis)
	s.mux.Get("/v1/accounts/{id}/reviews", h.listReviews)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func allowedPageLimit(l int) bool {
	for _, lim := range app.ReviewPageLimits {
		if l == lim {
			return true
		}
	}
	return false
}

func accountID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// ---- accounts ----

type accountView struct {
	ID        int64     `json:"id"`
	Platform  string    `json:"platform"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAccountView(a domain.Account) accountView {
	return accountView{ID: a.ID, Platform: a.Platform, Name: a.Name, CreatedAt: a.CreatedAt}
}

func (h *Handlers) listAccounts(w http.ResponseWriter, r *http.Request) {
	accts, err := h.Accounts.List(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to list accounts")
		return
	}
	out := make([]accountView, 0, len(accts))
	for _, a := range accts {
		out = append(out, toAccountView(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (h *Handlers) createAccount(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Platform string `json:"platform"`
		Name     string `json:"accountName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "expected JSON with platform and accountName")
		return
	}
	a, err := h.Accounts.Create(r.Context(), in.Platform, in.Name)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Account", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toAccountView(a))
}

func (h *Handlers) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	if err := h.Accounts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "account not found")
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- scan ----

func (h *Handlers) scanAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	sum, err := h.Scan.ScanAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Not Found", "account not found")
			return
		}
		writeProblem(w, http.StatusBadGateway, "Scan Failed", "failed to fetch or store reviews")
		return
	}
	reviews := make([]reviewView, 0, len(sum.Reviews))
	for _, rv := range sum.Reviews {
		reviews = append(reviews, toReviewView(rv))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"account":     toAccountView(sum.Account),
		"reviewCount": sum.Ingested,
		"reviews":     reviews,
	})
}

// ---- analysis ----

type analysisView struct {
	ID               int64     `json:"id"`
	Date             time.Time `json:"date"`
	OverallSentiment float64   `json:"overallSentiment"`
	ReviewCount      int       `json:"reviewCount"`
	TopKeywords      []string  `json:"topKeywords"`
	KeyInsights      []string  `json:"keyInsights"`
	Summary          string    `json:"summary"`
}

func (h *Handlers) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}
	res, err := h.Analysis.AccountAnalysis(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeProblem(w, http.StatusNotFound, "Not Found", "account not found")
		case errors.Is(err, domain.ErrNoReviews):
			// Explicit no-data signal: the caller should scan first.
			writeJSON(w, http.StatusOK, map[string]any{
				"noData":  true,
				"message": "No reviews found for this account. Please scan for reviews first.",
			})
		default:
			writeProblem(w, http.StatusInternalServerError, "Internal Error", "failed to compute analysis")
		}
		return
	}

	view := map[string]any{
		"success": true,
		"analysis": analysisView{
			ID:               res.ID,
			Date:             res.AnalysisDate,
			OverallSentiment: res.OverallSentiment,
			ReviewCount:      res.ReviewCount,
			TopKeywords:      res.TopKeywords,
			KeyInsights:      res.KeyInsights,
			Summary:          res.Summary,
		},
	}

	etag, body := calcETagAndBody(view)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write analysis body")
	}
}

// ---- reviews ----

type reviewView struct {
	ID         int64      `json:"id"`
	Reviewer   *string    `json:"reviewerName"`
	Text       string     `json:"text"`
	Rating     *float64   `json:"rating"`
	Sentiment  float64    `json:"sentiment"`
	Keywords   []string   `json:"keywords"`
	ReviewDate *time.Time `json:"date"`
}

func toReviewView(rv domain.Review) reviewView {
	return reviewView{
		ID:         rv.ID,
		Reviewer:   rv.Reviewer,
		Text:       rv.Text,
		Rating:     rv.Rating,
		Sentiment:  rv.SentimentScore,
		Keywords:   rv.Keywords,
		ReviewDate: rv.ReviewDate,
	}
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a positive number")
		return
	}

	// Only the page sizes the scan invalidation covers are served; an
	// arbitrary limit would cache under a key no scan ever flushes.
	limit := app.ReviewPageLimits[0]
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || !allowedPageLimit(l) {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be one of 50, 100 or 200")
			return
		}
		limit = l
	}

	// Newest first; aligns with DB index on (account_id, created_at, id)
	page := domain.PageQuery{Limit: limit, Sort: "-created_at"}
	out, err := h.Analysis.ListReviews(r.Context(), id, page)
	if err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "reviews not found")
		return
	}
	reviews := make([]reviewView, 0, len(out.Items))
	for _, rv := range out.Items {
		reviews = append(reviews, toReviewView(rv))
	}

	etag, body := calcETagAndBody(map[string]any{"reviews": reviews})
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}
