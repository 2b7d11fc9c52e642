package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"MoisHub/core/smule"
	"MoisHub/logger"
)

// SmuleImportRequest is the body for fetching recording metadata from Smule.
type SmuleImportRequest struct {
	RecordingURL string `json:"recordingUrl"`
	Cookie       string `json:"cookie"`
}

// SmuleImportHandler fetches recording metadata from a Smule performance URL.
// The upstream contract is unstable; on failure the client should fall back
// to manual upload, which the hint field spells out.
func (h *APIHandler) SmuleImportHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req SmuleImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.RecordingURL = strings.TrimSpace(req.RecordingURL)
	if req.RecordingURL == "" {
		writeError(w, http.StatusBadRequest, "Recording url is required")
		return
	}
	if req.Cookie == "" {
		writeError(w, http.StatusBadRequest, "Smule session cookie is required")
		return
	}

	recording, err := h.smule.FetchRecording(r.Context(), req.RecordingURL, req.Cookie)
	if err != nil {
		if errors.Is(err, smule.ErrRecordingNotFound) {
			writeError(w, http.StatusNotFound, "Recording not found on Smule")
			return
		}
		logger.Error("[Smule] 导入录音失败",
			logger.Int64("userID", userID),
			logger.String("url", req.RecordingURL),
			logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Failed to import recording from Smule",
			"hint":  "The Smule API may have changed; upload the file manually instead",
		})
		return
	}

	logger.Info("[Smule] 导入录音成功",
		logger.Int64("userID", userID),
		logger.String("title", recording.Title))

	writeJSON(w, http.StatusOK, recording)
}
