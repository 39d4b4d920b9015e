package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxOriginalNameLen = 255
	keyTokenBytes      = 8
)

// newStorageKey: "<prefix><unix-ms>-<16 hex><.ext>"
func newStorageKey(prefix, originalName, mimeType string, now time.Time) (fileName, key string, err error) {
	token := make([]byte, keyTokenBytes)
	if _, err = rand.Read(token); err != nil {
		return "", "", fmt.Errorf("storage key token: %w", err)
	}

	fileName = fmt.Sprintf("%d-%s%s", now.UnixMilli(), hex.EncodeToString(token), keyExtension(originalName, mimeType))

	return fileName, prefix + fileName, nil
}

// keyExtension takes the extension from the uploaded name when it is plain
// ASCII after accent stripping, else the first one registered for mimeType.
func keyExtension(originalName, mimeType string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(originalName), "\\", "/"))
	ext, _, _ := transform.String(stripMarks(), path.Ext(base))
	if ext = asciiExt(strings.ToLower(ext)); ext != "" {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
		return asciiExt(strings.ToLower(exts[0]))
	}

	return ""
}

// displayName keeps the uploader's file name for Content-Disposition while
// dropping any directory part and control characters.
func displayName(original string) string {
	s := strings.ReplaceAll(strings.TrimSpace(original), "\\", "/")
	s = path.Base(s)
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	if s == "." || s == ".." || s == "/" || s == "" {
		return "file"
	}
	for utf8.RuneCountInString(s) > maxOriginalNameLen {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}

	return s
}

// asciiExt keeps ".xyz" only when every rune after the dot is [a-z0-9].
func asciiExt(ext string) string {
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// stripMarks is built per call since a Chain keeps state between calls.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
