package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ragshield/ragshield/guardrails"
	"github.com/ragshield/ragshield/rag"
)

// gateRunner is the part of the gate the HTTP layer needs.
type gateRunner interface {
	Run(ctx context.Context, query string, image []byte, systemPrompt string) guardrails.Result
}

// chatRequest is the JSON request body for /api/chat.
type chatRequest struct {
	Message      string `json:"message"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// chatHandler serves POST /api/chat. It accepts either a JSON body
// {"message": ...} or a multipart form with a message field and an
// optional image file. Success is {"response": ...}; a gate rejection is
// {"error": ...} with status 400.
func chatHandler(gate gateRunner, maxBodyBytes int64, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

		var message, systemPrompt string
		var image []byte

		contentType := r.Header.Get("Content-Type")
		switch {
		case strings.HasPrefix(contentType, "multipart/form-data"):
			if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
				writeError(w, http.StatusBadRequest, "invalid multipart form")
				return
			}
			message = r.FormValue("message")
			systemPrompt = r.FormValue("system_prompt")

			if file, _, err := r.FormFile("image"); err == nil {
				data, readErr := io.ReadAll(file)
				file.Close()
				if readErr != nil {
					writeError(w, http.StatusBadRequest, "could not read image upload")
					return
				}
				image = data
			}

		default:
			var req chatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
			message = req.Message
			systemPrompt = req.SystemPrompt
		}

		if strings.TrimSpace(message) == "" && len(image) == 0 {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		result := gate.Run(r.Context(), message, image, systemPrompt)
		if result.Rejected {
			logger.Info("request rejected by gate",
				zap.String("stage", string(result.Stage)))
			writeError(w, http.StatusBadRequest, result.Answer)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"response": result.Answer})
	})
}

// healthHandler reports liveness plus basic index facts.
func healthHandler(snapshot *rag.Snapshot) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "ok",
			"index_chunks":   snapshot.Len(),
			"index_identity": snapshot.Identity().String(),
		})
	})
}
