package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MoisHub/model"

	"gorm.io/gorm"
)

// ReviewRepository 评论数据访问接口
type ReviewRepository interface {
	// 评论 CRUD
	CreateReview(ctx context.Context, review *model.Review) error
	GetReviewByID(ctx context.Context, id int64) (*model.Review, error)
	ListByTrack(ctx context.Context, trackID int64) ([]*model.Review, error)
	DeleteReview(ctx context.Context, reviewID, requesterID int64) (*model.Review, error)
	DeleteByTrack(ctx context.Context, trackID int64) error

	// 点赞，单事务内完成插入或删除与计数更新
	ToggleLike(ctx context.Context, reviewID, userID int64) (bool, int64, error)
}

// gormReviewRepository GORM 实现
type gormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository 创建 GORM 评论仓库
func NewGormReviewRepository(db *gorm.DB) ReviewRepository {
	return &gormReviewRepository{db: db}
}

// CreateReview 插入评论，(track_id, reviewer_id) 唯一键冲突映射为 ErrDuplicateReview
func (r *gormReviewRepository) CreateReview(ctx context.Context, review *model.Review) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	err := r.db.WithContext(ctx).Create(review).Error
	if err != nil {
		if isDuplicateEntry(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetReviewByID 根据ID获取评论
func (r *gormReviewRepository) GetReviewByID(ctx context.Context, id int64) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).First(&review, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review %d: %w", id, err)
	}
	return &review, nil
}

// reviewerProfile 评论者资料投影
type reviewerProfile struct {
	ID            int64
	Username      string
	ReviewerLevel int
	SmuleVerified bool
}

// ListByTrack 返回曲目的全部评论，按时间倒序，并填充评论者资料
func (r *gormReviewRepository) ListByTrack(ctx context.Context, trackID int64) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Where("track_id = ?", trackID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for track %d: %w", trackID, err)
	}
	if len(reviews) == 0 {
		return reviews, nil
	}

	// 批量查询评论者资料
	ids := make([]int64, 0, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.ReviewerID)
	}

	var profiles []reviewerProfile
	err = r.db.WithContext(ctx).
		Table("users").
		Select("id, username, reviewer_level, smule_verified").
		Where("id IN ?", ids).
		Scan(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer profiles: %w", err)
	}

	byID := make(map[int64]reviewerProfile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	for _, rv := range reviews {
		if p, ok := byID[rv.ReviewerID]; ok {
			rv.ReviewerName = p.Username
			rv.ReviewerLevel = p.ReviewerLevel
			rv.ReviewerVerified = p.SmuleVerified
		}
	}

	return reviews, nil
}

// DeleteReview 删除评论，仅限评论作者本人
// 返回被删除的评论，调用方用 TrackID 维护曲目计数
func (r *gormReviewRepository) DeleteReview(ctx context.Context, reviewID, requesterID int64) (*model.Review, error) {
	review, err := r.GetReviewByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID != requesterID {
		return nil, ErrNotOwner
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", reviewID).Delete(&model.ReviewLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Review{}, reviewID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete review %d: %w", reviewID, err)
	}
	return review, nil
}

// DeleteByTrack 删除曲目的全部评论及其点赞
// 评论表由 GORM 管理且不建外键，曲目删除时由调用方显式级联
func (r *gormReviewRepository) DeleteByTrack(ctx context.Context, trackID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&model.Review{}).Select("id").Where("track_id = ?", trackID)
		if err := tx.Where("review_id IN (?)", sub).Delete(&model.ReviewLike{}).Error; err != nil {
			return err
		}
		return tx.Where("track_id = ?", trackID).Delete(&model.Review{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete reviews for track %d: %w", trackID, err)
	}
	return nil
}

// ToggleLike 点赞开关
// 删除与插入和计数更新在同一事务内，靠 (review_id, user_id) 唯一键挡住并发重复插入，
// 避免先读后写的竞态
func (r *gormReviewRepository) ToggleLike(ctx context.Context, reviewID, userID int64) (bool, int64, error) {
	var liked bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("review_id = ? AND user_id = ?", reviewID, userID).Delete(&model.ReviewLike{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected > 0 {
			// 已点赞，取消
			liked = false
			return tx.Model(&model.Review{}).Where("id = ?", reviewID).
				UpdateColumn("likes_count", gorm.Expr("GREATEST(CAST(likes_count AS SIGNED) - 1, 0)")).Error
		}

		like := &model.ReviewLike{ReviewID: reviewID, UserID: userID, CreatedAt: time.Now()}
		if err := tx.Create(like).Error; err != nil {
			if isDuplicateEntry(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
				// 并发下另一次切换已插入，视为已点赞，不动计数
				liked = true
				return nil
			}
			return err
		}
		liked = true
		return tx.Model(&model.Review{}).Where("id = ?", reviewID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1")).Error
	})
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle like on review %d: %w", reviewID, err)
	}

	var review model.Review
	if err := r.db.WithContext(ctx).Select("likes_count").First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, ErrNotFound
		}
		return false, 0, fmt.Errorf("failed to read likes count for review %d: %w", reviewID, err)
	}

	return liked, review.LikesCount, nil
}
