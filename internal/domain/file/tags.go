package file

import "strings"

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/jpg":          {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

func IsAllowedMimeType(mimeType string) bool {
	_, ok := allowedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	return ok
}

// ParseTags splits a comma separated list and cleans it with CleanTags.
func ParseTags(raw string) []string {
	return CleanTags(strings.Split(raw, ","))
}

// CleanTags trims every entry and drops empties and repeats while keeping the
// first-seen order. Entries are never split.
func CleanTags(in []string) []string {
	tags := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}

	return tags
}
