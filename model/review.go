package model

import (
	"time"
)

// Review 曲目评论（带评分）
// 评论模块使用 GORM 管理，uq_track_reviewer 保证每人对每首曲目只能评论一次
type Review struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TrackID    int64     `json:"trackId" gorm:"not null;uniqueIndex:uq_track_reviewer"`
	ReviewerID int64     `json:"reviewerId" gorm:"not null;uniqueIndex:uq_track_reviewer"`
	Rating     int       `json:"rating" gorm:"not null"` // 1-5
	Comment    string    `json:"comment" gorm:"type:text;not null"`
	LikesCount int64     `json:"likesCount" gorm:"default:0"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`

	// 关联的评论者资料，读取时填充
	ReviewerName     string `json:"reviewerName,omitempty" gorm:"-"`
	ReviewerLevel    int    `json:"reviewerLevel,omitempty" gorm:"-"`
	ReviewerVerified bool   `json:"reviewerVerified,omitempty" gorm:"-"`
}

// TableName 指定表名
func (Review) TableName() string {
	return "reviews"
}

// ReviewLike 点赞记录，(review_id, user_id) 唯一
// likes_count 是该集合大小的缓存，二者在同一事务内更新
type ReviewLike struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ReviewID  int64     `json:"reviewId" gorm:"not null;uniqueIndex:uq_review_user"`
	UserID    int64     `json:"userId" gorm:"not null;uniqueIndex:uq_review_user"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定表名
func (ReviewLike) TableName() string {
	return "review_likes"
}

// Review content constraints, enforced before any write.
const (
	MinRating        = 1
	MaxRating        = 5
	MinCommentLength = 20
	MaxCommentLength = 1000
)

// ValidRating reports whether the rating is an integer in [1,5].
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// ValidComment reports whether the comment length is within bounds.
func ValidComment(comment string) bool {
	n := len([]rune(comment))
	return n >= MinCommentLength && n <= MaxCommentLength
}

// AverageRating computes the mean rating rounded to one decimal.
// The aggregate is always derived, never stored.
func AverageRating(reviews []*Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	mean := float64(sum) / float64(len(reviews))
	return float64(int(mean*10+0.5)) / 10
}
