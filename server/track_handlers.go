package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"MoisHub/cache"
	"MoisHub/core/auth"
	"MoisHub/core/upload"
	"MoisHub/logger"
	"MoisHub/model"
	"MoisHub/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// UploadTrackHandler handles audio uploads and metadata.
// Expected multipart form fields:
// - trackFile: the audio file (MP3, WAV, FLAC, ...)
// - title: track title
// - description: free text (optional)
// - tags: whitespace separated tags (optional)
// - trackType: original or cover (defaults to original)
// - originalTitle: required when trackType is cover
// - lyrics: free text (optional)
// - coverFile: cover art image (optional)
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// 限流在任何重活之前检查，计数也在此刻记入窗口
	decision := h.limiter.Check(fmt.Sprintf("upload:%d", userID), h.cfg.UploadRateLimit, h.cfg.UploadRateWindow)
	if !decision.Allowed {
		retryAfter := int(time.Until(decision.ResetAt).Seconds()) + 1
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		logger.Warn("[Upload] 触发上传限流", logger.Int64("userID", userID))
		writeError(w, http.StatusTooManyRequests, "Upload rate limit exceeded, try again later")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("[Upload] 查询用户失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if !user.CanUpload() {
		writeError(w, http.StatusForbidden, "Reviewer accounts cannot upload tracks")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max memory
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	trackFile, trackHeader, err := r.FormFile("trackFile")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'trackFile' in form")
		return
	}
	defer trackFile.Close()

	title := strings.TrimSpace(r.FormValue("title"))
	if len([]rune(title)) < 3 {
		writeError(w, http.StatusBadRequest, "Title must be at least 3 characters")
		return
	}

	trackType := r.FormValue("trackType")
	if trackType == "" {
		trackType = model.TrackTypeOriginal
	}
	if trackType != model.TrackTypeOriginal && trackType != model.TrackTypeCover {
		writeError(w, http.StatusBadRequest, "Track type must be original or cover")
		return
	}
	originalTitle := strings.TrimSpace(r.FormValue("originalTitle"))
	if trackType == model.TrackTypeCover && originalTitle == "" {
		writeError(w, http.StatusBadRequest, "Original title is required for covers")
		return
	}

	result := upload.ValidateAudioFile(trackHeader.Filename, trackHeader.Header.Get("Content-Type"), trackHeader.Size)
	if !result.Valid {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "Audio file validation failed",
			"errors": result.Errors,
		})
		return
	}

	// 上传音频，失败则整个请求失败
	ext := strings.ToLower(filepath.Ext(trackHeader.Filename))
	if ext == "" {
		ext = ".mp3"
	}
	audioPath := fmt.Sprintf("audio/%d/%s%s", userID, uuid.New().String(), ext)

	uploadCtx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	contentType := trackHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	if err := storage.UploadObject(uploadCtx, audioPath, trackFile, trackHeader.Size, contentType); err != nil {
		logger.Error("[Upload] 音频上传到MinIO失败", logger.ErrorField(err), logger.String("path", audioPath))
		writeError(w, http.StatusInternalServerError, "Failed to store audio file")
		return
	}

	// 封面可选，失败只记日志不影响曲目创建
	coverURL := ""
	if coverFile, coverHeader, err := r.FormFile("coverFile"); err == nil {
		defer coverFile.Close()
		coverResult := upload.ValidateCoverImage(coverHeader.Header.Get("Content-Type"), coverHeader.Size)
		if !coverResult.Valid {
			logger.Warn("[Upload] 封面校验失败，忽略封面",
				logger.Int64("userID", userID),
				logger.Any("errors", coverResult.Errors))
		} else {
			coverExt := strings.ToLower(filepath.Ext(coverHeader.Filename))
			if coverExt == "" {
				coverExt = ".jpg"
			}
			coverPath := fmt.Sprintf("covers/%d/%s%s", userID, uuid.New().String(), coverExt)
			if err := storage.UploadObject(uploadCtx, coverPath, coverFile, coverHeader.Size, coverHeader.Header.Get("Content-Type")); err != nil {
				logger.Warn("[Upload] 封面上传失败，忽略封面", logger.ErrorField(err))
			} else {
				coverURL = storage.PublicURL(coverPath)
			}
		}
	}

	tags := strings.Join(upload.NormalizeTags(r.FormValue("tags")), " ")

	track := &model.Track{
		AuthorID:  userID,
		Title:     title,
		Tags:      tags,
		TrackType: trackType,
		FileURL:   storage.PublicURL(audioPath),
		FileSize:  trackHeader.Size,
		Status:    model.StatusPending,
	}
	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		track.Description = sql.NullString{String: desc, Valid: true}
	}
	if originalTitle != "" {
		track.OriginalTitle = sql.NullString{String: originalTitle, Valid: true}
	}
	if lyrics := strings.TrimSpace(r.FormValue("lyrics")); lyrics != "" {
		track.Lyrics = sql.NullString{String: lyrics, Valid: true}
	}
	if coverURL != "" {
		track.CoverURL = sql.NullString{String: coverURL, Valid: true}
	}

	trackID, err := h.trackRepo.CreateTrack(r.Context(), track)
	if err != nil {
		logger.Error("[Upload] 写入曲目失败", logger.ErrorField(err))
		// 数据库失败后清理已上传的文件
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		if rmErr := storage.RemoveObject(cleanupCtx, audioPath); rmErr != nil {
			logger.Warn("[Upload] 清理音频文件失败", logger.ErrorField(rmErr))
		}
		if coverURL != "" {
			if path := storage.ObjectPathFromURL(coverURL); path != "" {
				if rmErr := storage.RemoveObject(cleanupCtx, path); rmErr != nil {
					logger.Warn("[Upload] 清理封面文件失败", logger.ErrorField(rmErr))
				}
			}
		}
		writeError(w, http.StatusInternalServerError, "Failed to create track")
		return
	}
	track.ID = trackID

	// 上传成功即发放作者奖励，不等待审核
	if err := h.userRepo.GrantUploadReward(userID); err != nil {
		logger.Error("[Upload] 发放上传奖励失败", logger.Int64("userID", userID), logger.ErrorField(err))
	}

	logger.Info("[Upload] 曲目上传成功",
		logger.Int64("trackID", trackID),
		logger.Int64("userID", userID),
		logger.String("title", title))

	created, err := h.trackRepo.GetTrackByID(r.Context(), trackID)
	if err != nil || created == nil {
		// 创建已成功，读取失败时退回内存里的数据
		created = track
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"track":     created,
		"remaining": decision.Remaining,
	})
}

// GetTracksHandler returns one page of the public feed. Only approved tracks
// are listed; pending and rejected rows never leak here.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	tag := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("tag")))
	if tag != "" && !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}

	// 先查缓存
	if payload, err := cache.GetFeed(r.Context(), page, pageSize, tag); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.Write(payload)
		return
	} else if !cache.IsCacheMiss(err) {
		logger.Warn("[Tracks] 读取列表缓存失败", logger.ErrorField(err))
	}

	tracks, total, err := h.trackRepo.ListApproved(r.Context(), page, pageSize, tag)
	if err != nil {
		logger.Error("[Tracks] 查询曲目列表失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list tracks")
		return
	}

	response := map[string]interface{}{
		"tracks":   tracks,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	}

	payload, err := json.Marshal(response)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode tracks")
		return
	}
	if err := cache.SetFeed(r.Context(), page, pageSize, tag, payload); err != nil {
		logger.Warn("[Tracks] 写入列表缓存失败", logger.ErrorField(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.Write(payload)
}

// GetTrackHandler returns a single track. Hidden tracks are only visible to
// their author and admins; everyone else gets a 404 to avoid leaking that
// the track exists.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), trackID)
	if err != nil {
		logger.Error("[Tracks] 查询曲目失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	viewerID, viewerIsAdmin := h.optionalViewer(r)
	if !track.VisibleTo(viewerID, viewerIsAdmin) {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	writeJSON(w, http.StatusOK, track)
}

// DeleteTrackHandler removes a track. Allowed for the author and for admins.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), trackID)
	if err != nil {
		logger.Error("[Tracks] 查询曲目失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	if track.AuthorID != userID {
		isAdmin, err := h.adminRepo.IsAdmin(r.Context(), userID)
		if err != nil {
			logger.Error("[Tracks] 查询管理员状态失败", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !isAdmin {
			writeError(w, http.StatusForbidden, "Only the author or an admin can delete this track")
			return
		}
	}

	// 先级联删除评论和点赞，评论表没有指向 tracks 的外键
	if err := h.reviewRepo.DeleteByTrack(r.Context(), trackID); err != nil {
		logger.Error("[Tracks] 级联删除评论失败", logger.Int64("trackID", trackID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}

	if err := h.trackRepo.DeleteTrack(r.Context(), trackID); err != nil {
		logger.Error("[Tracks] 删除曲目失败", logger.Int64("trackID", trackID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}

	// 文件清理尽力而为，数据库行已删，残留对象由人工清理
	cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if path := storage.ObjectPathFromURL(track.FileURL); path != "" {
		if err := storage.RemoveObject(cleanupCtx, path); err != nil {
			logger.Warn("[Tracks] 清理音频对象失败", logger.ErrorField(err))
		}
	}
	if track.CoverURL.Valid {
		if path := storage.ObjectPathFromURL(track.CoverURL.String); path != "" {
			if err := storage.RemoveObject(cleanupCtx, path); err != nil {
				logger.Warn("[Tracks] 清理封面对象失败", logger.ErrorField(err))
			}
		}
	}

	if err := cache.InvalidateFeed(r.Context()); err != nil {
		logger.Warn("[Tracks] 失效列表缓存失败", logger.ErrorField(err))
	}

	logger.Info("[Tracks] 曲目已删除", logger.Int64("trackID", trackID), logger.Int64("userID", userID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Track deleted"})
}

// PlayTrackHandler bumps the play counter for an approved track.
func (h *APIHandler) PlayTrackHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), trackID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil || track.Status != model.StatusApproved {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	if err := h.trackRepo.IncrementPlays(r.Context(), trackID); err != nil {
		logger.Error("[Tracks] 更新播放数失败", logger.Int64("trackID", trackID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to record play")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"playsCount": track.PlaysCount + 1})
}

// optionalViewer resolves the caller from a Bearer token when present.
// Public routes use it so owners and admins see their hidden tracks without
// forcing authentication on everyone.
func (h *APIHandler) optionalViewer(r *http.Request) (int64, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return 0, false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, false
	}
	claims, err := auth.ParseToken(parts[1])
	if err != nil {
		return 0, false
	}
	isAdmin, err := h.adminRepo.IsAdmin(r.Context(), claims.UserID)
	if err != nil {
		isAdmin = false
	}
	return claims.UserID, isAdmin
}
