package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"MoisHub/logger"
	"MoisHub/model"
	"MoisHub/repository"

	"github.com/gorilla/mux"
)

// AddReviewRequest is the body for creating a review.
type AddReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// AddReviewHandler creates a review on an approved track.
// One review per reviewer per track; authors cannot review their own work.
func (h *APIHandler) AddReviewHandler(w http.ResponseWriter, r *http.Request) {
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

	var req AddReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Comment = strings.TrimSpace(req.Comment)

	if !model.ValidRating(req.Rating) {
		writeError(w, http.StatusBadRequest, "Rating must be an integer between 1 and 5")
		return
	}
	if !model.ValidComment(req.Comment) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Comment must be between %d and %d characters", model.MinCommentLength, model.MaxCommentLength))
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), trackID)
	if err != nil {
		logger.Error("[Review] 查询曲目失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil || track.Status != model.StatusApproved {
		// 未审核通过的曲目不可评论，对外表现为不存在
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	if track.AuthorID == userID {
		writeError(w, http.StatusForbidden, "Authors cannot review their own tracks")
		return
	}

	review := &model.Review{
		TrackID:    trackID,
		ReviewerID: userID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := h.reviewRepo.CreateReview(r.Context(), review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			writeError(w, http.StatusConflict, "You already reviewed this track")
			return
		}
		logger.Error("[Review] 创建评论失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create review")
		return
	}

	// 冗余计数与奖励失败不回滚评论，只记日志
	if err := h.trackRepo.AddReviewsCount(r.Context(), trackID, 1); err != nil {
		logger.Error("[Review] 更新曲目评论数失败", logger.Int64("trackID", trackID), logger.ErrorField(err))
	}
	if err := h.userRepo.GrantReviewReward(userID); err != nil {
		logger.Error("[Review] 发放评论奖励失败", logger.Int64("userID", userID), logger.ErrorField(err))
	}

	logger.Info("[Review] 评论创建成功",
		logger.Int64("reviewID", review.ID),
		logger.Int64("trackID", trackID),
		logger.Int64("userID", userID))

	writeJSON(w, http.StatusCreated, review)
}

// ListReviewsHandler returns all reviews of a track, newest first, together
// with the derived average rating.
func (h *APIHandler) ListReviewsHandler(w http.ResponseWriter, r *http.Request) {
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
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	viewerID, viewerIsAdmin := h.optionalViewer(r)
	if !track.VisibleTo(viewerID, viewerIsAdmin) {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	reviews, err := h.reviewRepo.ListByTrack(r.Context(), trackID)
	if err != nil {
		logger.Error("[Review] 查询评论失败", logger.Int64("trackID", trackID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list reviews")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reviews":       reviews,
		"count":         len(reviews),
		"averageRating": model.AverageRating(reviews),
	})
}

// DeleteReviewHandler removes the caller's own review and rolls back the
// track's review counter. XP already granted is kept.
func (h *APIHandler) DeleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	reviewID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	review, err := h.reviewRepo.DeleteReview(r.Context(), reviewID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "Review not found")
		case errors.Is(err, repository.ErrNotOwner):
			writeError(w, http.StatusForbidden, "Only the reviewer can delete this review")
		default:
			logger.Error("[Review] 删除评论失败", logger.Int64("reviewID", reviewID), logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete review")
		}
		return
	}

	if err := h.trackRepo.AddReviewsCount(r.Context(), review.TrackID, -1); err != nil {
		logger.Error("[Review] 回滚曲目评论数失败", logger.Int64("trackID", review.TrackID), logger.ErrorField(err))
	}

	logger.Info("[Review] 评论已删除", logger.Int64("reviewID", reviewID), logger.Int64("userID", userID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review deleted"})
}

// ToggleLikeHandler flips the caller's like on a review and returns the new
// state plus the authoritative counter.
func (h *APIHandler) ToggleLikeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	reviewID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if _, err := h.reviewRepo.GetReviewByID(r.Context(), reviewID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	liked, likesCount, err := h.reviewRepo.ToggleLike(r.Context(), reviewID, userID)
	if err != nil {
		logger.Error("[Review] 点赞切换失败", logger.Int64("reviewID", reviewID), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to toggle like")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liked":      liked,
		"likesCount": likesCount,
	})
}
