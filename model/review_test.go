package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidRating(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		assert.True(t, ValidRating(rating))
	}
	assert.False(t, ValidRating(0))
	assert.False(t, ValidRating(6))
	assert.False(t, ValidRating(-1))
}

func TestValidComment(t *testing.T) {
	assert.False(t, ValidComment(""))
	assert.False(t, ValidComment("too short"))
	assert.True(t, ValidComment(strings.Repeat("a", MinCommentLength)))
	assert.True(t, ValidComment(strings.Repeat("a", MaxCommentLength)))
	assert.False(t, ValidComment(strings.Repeat("a", MaxCommentLength+1)))

	// 长度按字符数而非字节数计算
	assert.True(t, ValidComment(strings.Repeat("好", MinCommentLength)))
	assert.False(t, ValidComment(strings.Repeat("好", MinCommentLength-1)))
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.Equal(t, 0.0, AverageRating([]*Review{}))

	assert.Equal(t, 4.0, AverageRating([]*Review{
		{Rating: 4},
	}))

	// (5+4)/2 = 4.5
	assert.Equal(t, 4.5, AverageRating([]*Review{
		{Rating: 5}, {Rating: 4},
	}))

	// (5+4+4)/3 = 4.333... -> 4.3
	assert.Equal(t, 4.3, AverageRating([]*Review{
		{Rating: 5}, {Rating: 4}, {Rating: 4},
	}))

	// (5+5+4)/3 = 4.666... -> 4.7
	assert.Equal(t, 4.7, AverageRating([]*Review{
		{Rating: 5}, {Rating: 5}, {Rating: 4},
	}))
}
