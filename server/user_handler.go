package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"MoisHub/logger"
	"MoisHub/model"

	"github.com/gorilla/mux"
)

// GetProfileHandler returns a public profile with the user's tracks.
// Pending and rejected tracks are included only when the viewer is the
// profile owner or an admin.
func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]

	user, err := h.userRepo.GetUserByUsername(username)
	if err != nil {
		logger.Error("[Profile] 查询用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	viewerID, viewerIsAdmin := h.optionalViewer(r)
	includeHidden := viewerIsAdmin || viewerID == user.ID

	tracks, err := h.trackRepo.ListByAuthor(r.Context(), user.ID, includeHidden)
	if err != nil {
		logger.Error("[Profile] 查询用户曲目失败", logger.Int64("userID", user.ID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list user tracks")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":   userResponse(user),
		"tracks": tracks,
	})
}

// MeHandler returns the authenticated user's own profile.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("[Profile] 查询当前用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user))
}

// UpdateSettingsRequest carries the mutable profile settings.
type UpdateSettingsRequest struct {
	AccountType string  `json:"accountType"`
	SmuleURL    *string `json:"smuleUrl"` // pointer so an explicit empty string unlinks
}

// UpdateSettingsHandler changes account type and the linked Smule profile.
// Relinking a different Smule URL resets the verified flag.
func (h *APIHandler) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if req.AccountType != "" {
		if !model.ValidAccountType(req.AccountType) {
			writeError(w, http.StatusBadRequest, "Account type must be author, reviewer or both")
			return
		}
		if req.AccountType != user.AccountType {
			if err := h.userRepo.UpdateAccountType(userID, req.AccountType); err != nil {
				logger.Error("[Profile] 更新账号类型失败", logger.Int64("userID", userID), logger.ErrorField(err))
				writeError(w, http.StatusInternalServerError, "Failed to update account type")
				return
			}
		}
	}

	if req.SmuleURL != nil {
		newURL := strings.TrimSpace(*req.SmuleURL)
		current := ""
		if user.SmuleURL.Valid {
			current = user.SmuleURL.String
		}
		if newURL != current {
			// 换绑即取消已验证状态
			if err := h.userRepo.UpdateSmuleProfile(userID, newURL, false); err != nil {
				logger.Error("[Profile] 更新Smule绑定失败", logger.Int64("userID", userID), logger.ErrorField(err))
				writeError(w, http.StatusInternalServerError, "Failed to update smule profile")
				return
			}
		}
	}

	updated, err := h.userRepo.GetUserByID(userID)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Profile] 设置已更新", logger.Int64("userID", userID))
	writeJSON(w, http.StatusOK, userResponse(updated))
}
