package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/opentdb"
)

// Handler serves the REST API: the question proxy, score CRUD, and the
// aggregated leaderboard/stats views.
type Handler struct {
	quiz   *app.QuizService
	scores *app.ScoreService
}

func NewHandler(quiz *app.QuizService, scores *app.ScoreService) *Handler {
	return &Handler{quiz: quiz, scores: scores}
}

// Register wires the REST routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("GET /api/questions", h.questions)
	mux.HandleFunc("GET /api/scores", h.listScores)
	mux.HandleFunc("POST /api/scores", h.saveScore)
	mux.HandleFunc("DELETE /api/scores/{id}", h.deleteScore)
	mux.HandleFunc("GET /api/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/stats", h.stats)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Quiz Backend API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) questions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := opentdb.Request{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
		Type:       q.Get("type"),
	}
	if amount, err := strconv.Atoi(q.Get("amount")); err == nil {
		req.Amount = amount
	}

	payload, err := h.quiz.RawQuestions(r.Context(), req)
	if err != nil {
		var rce *opentdb.ResponseCodeError
		if errors.As(err, &rce) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "Failed to fetch questions",
				"code":    rce.Code,
				"message": "The API request failed. Please try again.",
			})
			return
		}
		log.Printf("questions fetch failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Internal server error",
			"message": "Failed to fetch questions from the API",
		})
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) listScores(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	scores, total, err := h.scores.List(r.Context(), limit)
	if err != nil {
		log.Printf("list scores failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch scores"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"scores": scores,
	})
}

type saveScoreRequest struct {
	Username       string `json:"username"`
	Score          *int   `json:"score"`
	TotalQuestions *int   `json:"totalQuestions"`
	Percentage     int    `json:"percentage"`
	Date           string `json:"date"`
}

func (h *Handler) saveScore(w http.ResponseWriter, r *http.Request) {
	var req saveScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if req.Username == "" || req.Score == nil || req.TotalQuestions == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "Missing required fields",
			"required": []string{"username", "score", "totalQuestions"},
		})
		return
	}

	var date time.Time
	if req.Date != "" {
		if parsed, err := time.Parse(time.RFC3339, req.Date); err == nil {
			date = parsed
		}
	}

	record, err := h.scores.Save(r.Context(), app.SaveScoreRequest{
		Username:       req.Username,
		Score:          *req.Score,
		TotalQuestions: *req.TotalQuestions,
		Percentage:     req.Percentage,
		Date:           date,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("save score failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save score"})
		return
	}

	log.Printf("score saved: %s - %d/%d (%d%%)", record.Username, record.Score, record.TotalQuestions, record.Percentage)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Score saved successfully",
		"score":   record,
	})
}

func (h *Handler) deleteScore(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	found, err := h.scores.Delete(r.Context(), id)
	if err != nil {
		log.Printf("delete score failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete score"})
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Score not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Score deleted successfully"})
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, uniqueUsers, err := h.scores.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Printf("leaderboard failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch leaderboard"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":       uniqueUsers,
		"leaderboard": entries,
	})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.scores.Stats(r.Context())
	if err != nil {
		log.Printf("stats failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch statistics"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
