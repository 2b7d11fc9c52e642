package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAudioFile(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		valid       bool
		errCount    int
	}{
		{"valid mp3", "song.mp3", "audio/mpeg", 3 << 20, true, 0},
		{"valid flac by extension", "take.flac", "application/octet-stream", 10 << 20, true, 0},
		{"valid by content type only", "upload.bin", "audio/wav", 1 << 20, true, 0},
		{"wrong type and extension", "notes.pdf", "application/pdf", 1 << 20, false, 1},
		{"too large", "song.mp3", "audio/mpeg", MaxAudioSize + 1, false, 1},
		{"empty file", "song.mp3", "audio/mpeg", 0, false, 1},
		{"bad type and too large", "doc.txt", "text/plain", MaxAudioSize + 1, false, 2},
		{"no file", "", "", 0, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateAudioFile(tt.filename, tt.contentType, tt.size)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Len(t, res.Errors, tt.errCount)
		})
	}
}

func TestValidateAudioFileExactLimit(t *testing.T) {
	res := ValidateAudioFile("song.mp3", "audio/mpeg", MaxAudioSize)
	assert.True(t, res.Valid)
}

func TestValidateCoverImage(t *testing.T) {
	assert.True(t, ValidateCoverImage("image/jpeg", 1<<20).Valid)
	assert.True(t, ValidateCoverImage("image/png", MaxCoverSize).Valid)
	assert.False(t, ValidateCoverImage("image/png", MaxCoverSize+1).Valid)
	assert.False(t, ValidateCoverImage("audio/mpeg", 1<<20).Valid)
	assert.False(t, ValidateCoverImage("image/png", 0).Valid)
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"plain words", "pop love", []string{"#pop", "#love"}},
		{"already hashed", "#pop #love", []string{"#pop", "#love"}},
		{"mixed case", "Pop LOVE", []string{"#pop", "#love"}},
		{"extra whitespace", "  pop \t love  ", []string{"#pop", "#love"}},
		{"double hash", "##pop", []string{"#pop"}},
		{"bare hash dropped", "# pop", []string{"#pop"}},
		{"empty", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.raw))
		})
	}
}

func TestNormalizeTagsIdempotent(t *testing.T) {
	once := NormalizeTags("Pop #LOVE rock")
	twice := NormalizeTags(joinTags(once))
	assert.Equal(t, once, twice)
}

func joinTags(tags []string) string {
	out := ""
	for i, tag := range tags {
		if i > 0 {
			out += " "
		}
		out += tag
	}
	return out
}
