package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"MoisHub/cache"
	"MoisHub/logger"
	"MoisHub/model"
	"MoisHub/repository"

	"github.com/gorilla/mux"
)

// ModerationQueueHandler lists tracks for the admin review queue.
// ?status= filters: pending (default), approved, rejected, all.
func (h *APIHandler) ModerationQueueHandler(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = model.StatusPending
	}
	if status == "all" {
		status = ""
	} else if !model.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, "Status must be pending, approved, rejected or all")
		return
	}

	tracks, err := h.trackRepo.ListByStatus(r.Context(), status)
	if err != nil {
		logger.Error("[Moderation] 查询审核队列失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list moderation queue")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracks": tracks,
		"count":  len(tracks),
	})
}

// SetTrackStatusHandler moves a track through the moderation state machine.
type SetTrackStatusRequest struct {
	Status string `json:"status"`
}

// SetTrackStatusHandler applies a moderation decision. Transitions are
// validated against the state machine; repeating the current status is a 409.
func (h *APIHandler) SetTrackStatusHandler(w http.ResponseWriter, r *http.Request) {
	adminID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	var req SetTrackStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !model.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Status must be pending, approved or rejected")
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), trackID)
	if err != nil {
		logger.Error("[Moderation] 查询曲目失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	if !model.CanTransitionStatus(track.Status, req.Status) {
		writeError(w, http.StatusConflict, "Track is already in the requested status")
		return
	}

	if err := h.trackRepo.UpdateStatus(r.Context(), trackID, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Track not found")
			return
		}
		logger.Error("[Moderation] 更新审核状态失败", logger.Int64("trackID", trackID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to update track status")
		return
	}

	// 可见性变化，公共列表缓存整体失效
	if err := cache.InvalidateFeed(r.Context()); err != nil {
		logger.Warn("[Moderation] 失效列表缓存失败", logger.ErrorField(err))
	}

	logger.Info("[Moderation] 审核状态已更新",
		logger.Int64("trackID", trackID),
		logger.Int64("adminID", adminID),
		logger.String("from", track.Status),
		logger.String("to", req.Status))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trackId": trackID,
		"status":  req.Status,
	})
}
