package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/simpleqa-bench/internal/app"
	"github.com/stellarlinkco/simpleqa-bench/internal/store"
)

func respondError(c *gin.Context, status int, err error) {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type summaryResponse struct {
	Provider     string  `json:"provider"`
	Total        int     `json:"total"`
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	NotAttempted int     `json:"not_attempted"`
	Errors       int     `json:"errors"`
	Accuracy     float64 `json:"accuracy"`
	Degraded     bool    `json:"degraded,omitempty"`
	Note         string  `json:"note,omitempty"`
}

func (s *Server) handleGetSummary(c *gin.Context) {
	rows, err := app.SummarizeDir(s.runDir)
	if err != nil {
		if errors.Is(err, app.ErrConfig) {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]summaryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, summaryResponse{
			Provider:     row.Provider,
			Total:        row.Total,
			Correct:      row.Correct,
			Incorrect:    row.Incorrect,
			NotAttempted: row.NotAttempted,
			Errors:       row.Errors,
			Accuracy:     row.Accuracy,
			Degraded:     row.Degraded,
			Note:         row.Note,
		})
	}
	c.JSON(http.StatusOK, out)
}

type resultResponse struct {
	QuestionID      int    `json:"question_id"`
	Question        string `json:"question"`
	ReferenceAnswer string `json:"reference_answer"`
	ProviderAnswer  string `json:"provider_answer"`
	Grade           string `json:"grade"`
	ErrorNote       string `json:"error_note,omitempty"`
}

func (s *Server) handleGetProviderResults(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing provider name"))
		return
	}

	rows, err := store.ReadAll(s.runDir, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			respondError(c, http.StatusNotFound, errors.New("no results for provider "+name))
			return
		}
		if errors.Is(err, store.ErrCorrupt) {
			respondError(c, http.StatusConflict, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]resultResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, resultResponse{
			QuestionID:      row.QuestionID,
			Question:        row.Question,
			ReferenceAnswer: row.ReferenceAnswer,
			ProviderAnswer:  row.ProviderAnswer,
			Grade:           string(row.Grade),
			ErrorNote:       row.ErrorNote,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetProviderHistory(c *gin.Context) {
	if s == nil || s.history == nil {
		respondError(c, http.StatusInternalServerError, errors.New("history store not configured"))
		return
	}

	provider := strings.TrimSpace(c.Param("provider"))
	if provider == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing provider name"))
		return
	}

	limit := 20
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	entries, err := s.history.ProviderHistory(c.Request.Context(), provider, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
