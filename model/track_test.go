package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionStatus(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusApproved, StatusRejected, true},
		{StatusApproved, StatusPending, true},
		{StatusRejected, StatusApproved, true},
		{StatusRejected, StatusPending, true},

		// 同状态重复提交不算状态变化
		{StatusPending, StatusPending, false},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusRejected, false},

		// 未知状态一律拒绝
		{"archived", StatusApproved, false},
		{StatusPending, "archived", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransitionStatus(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestVisibleTo(t *testing.T) {
	pending := &Track{ID: 1, AuthorID: 7, Status: StatusPending}
	approved := &Track{ID: 2, AuthorID: 7, Status: StatusApproved}
	rejected := &Track{ID: 3, AuthorID: 7, Status: StatusRejected}

	// 审核通过后对所有人可见
	assert.True(t, approved.VisibleTo(0, false))
	assert.True(t, approved.VisibleTo(99, false))

	// 未通过的只有作者和管理员可见
	assert.True(t, pending.VisibleTo(7, false))
	assert.True(t, pending.VisibleTo(99, true))
	assert.False(t, pending.VisibleTo(99, false))
	assert.False(t, pending.VisibleTo(0, false))

	assert.True(t, rejected.VisibleTo(7, false))
	assert.False(t, rejected.VisibleTo(99, false))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusApproved))
	assert.True(t, ValidStatus(StatusRejected))
	assert.False(t, ValidStatus("all"))
	assert.False(t, ValidStatus(""))
}
