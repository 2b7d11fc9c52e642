package upload

import (
	"path/filepath"
	"strings"
)

// MaxAudioSize is the hard ceiling for uploaded audio files.
const MaxAudioSize = 50 << 20 // 50 MiB

// MaxCoverSize is the ceiling for cover images.
const MaxCoverSize = 5 << 20 // 5 MiB

// allowedAudioTypes is the accepted set of declared media types.
var allowedAudioTypes = map[string]bool{
	"audio/mpeg":   true,
	"audio/mp3":    true,
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/flac":   true,
	"audio/x-flac": true,
	"audio/aac":    true,
	"audio/ogg":    true,
	"audio/webm":   true,
	"audio/mp4":    true,
}

// allowedAudioExts covers browsers that report a generic content type.
var allowedAudioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".aac":  true,
	".ogg":  true,
	".webm": true,
	".m4a":  true,
}

// Result collects all validation failures instead of stopping at the first,
// so the client can surface every problem at once.
type Result struct {
	Valid  bool
	Errors []string
}

// ValidateAudioFile checks a candidate audio upload against the allowed
// type set and size constraints. All rules run independently.
func ValidateAudioFile(filename, contentType string, size int64) Result {
	var errs []string

	if filename == "" && size == 0 {
		return Result{Valid: false, Errors: []string{"no file provided"}}
	}

	typeOK := allowedAudioTypes[strings.ToLower(contentType)]
	extOK := allowedAudioExts[strings.ToLower(filepath.Ext(filename))]
	if !typeOK && !extOK {
		errs = append(errs, "unsupported audio format")
	}

	if size <= 0 {
		errs = append(errs, "file is empty")
	} else if size > MaxAudioSize {
		errs = append(errs, "file exceeds the 50 MB limit")
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateCoverImage checks an optional cover image upload.
func ValidateCoverImage(contentType string, size int64) Result {
	var errs []string

	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		errs = append(errs, "cover must be an image")
	}
	if size <= 0 {
		errs = append(errs, "cover file is empty")
	} else if size > MaxCoverSize {
		errs = append(errs, "cover exceeds the 5 MB limit")
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// NormalizeTags splits a free-text tag field on whitespace, lowercases each
// tag, drops empties and guarantees a single leading '#'. Normalizing an
// already normalized list yields the same list.
func NormalizeTags(raw string) []string {
	fields := strings.Fields(raw)
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		tag := strings.ToLower(strings.TrimLeft(f, "#"))
		if tag == "" {
			continue
		}
		tags = append(tags, "#"+tag)
	}
	return tags
}
