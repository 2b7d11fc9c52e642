package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2},
		{199, 2},
		{200, 3},
		{1000, 11},
		{-10, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestCanUpload(t *testing.T) {
	assert.True(t, (&User{AccountType: AccountTypeAuthor}).CanUpload())
	assert.True(t, (&User{AccountType: AccountTypeBoth}).CanUpload())
	assert.False(t, (&User{AccountType: AccountTypeReviewer}).CanUpload())
}

func TestValidAccountType(t *testing.T) {
	assert.True(t, ValidAccountType(AccountTypeAuthor))
	assert.True(t, ValidAccountType(AccountTypeReviewer))
	assert.True(t, ValidAccountType(AccountTypeBoth))
	assert.False(t, ValidAccountType("admin"))
	assert.False(t, ValidAccountType(""))
}
