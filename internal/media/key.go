package media

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[\x00-\x1f<>:"/\\|?*]`)
	collapseWhitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeFilename strips characters that are unsafe in an object key
// and keeps at most the trailing 180 characters of the name.
func SanitizeFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(name, "_")
	cleaned = collapseWhitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > 180 {
		cleaned = cleaned[len(cleaned)-180:]
	}
	if cleaned == "" {
		return "video"
	}

	return cleaned
}

// BuildObjectKey forms "<prefix><videoId>/<url-encoded name>". The id
// segment keeps keys for one video under one listable prefix.
func BuildObjectKey(prefix, videoId, originalName string) string {
	return prefix + videoId + "/" + url.QueryEscape(SanitizeFilename(originalName))
}

type ParsedKey struct {
	VideoId      string
	OriginalName string
	ObjectKey    string
}

func ParseObjectKey(prefix, objectKey string) (ParsedKey, bool) {
	if prefix == "" || !strings.HasPrefix(objectKey, prefix) {
		return ParsedKey{}, false
	}

	remainder := objectKey[len(prefix):]
	slashIndex := strings.Index(remainder, "/")
	if slashIndex <= 0 {
		return ParsedKey{}, false
	}

	videoId := remainder[:slashIndex]
	encodedName := remainder[slashIndex+1:]
	if encodedName == "" {
		return ParsedKey{}, false
	}

	originalName, err := url.QueryUnescape(encodedName)
	if err != nil {
		originalName = encodedName
	}

	return ParsedKey{
		VideoId:      videoId,
		OriginalName: originalName,
		ObjectKey:    objectKey,
	}, true
}
