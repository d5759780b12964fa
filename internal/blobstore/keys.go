package blobstore

import (
	"crypto/rand"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Key prefixes, one per attachment column. A key is only ever stored in the
// column its prefix names, so the reference check can count a single column.
const (
	PrefixCharacters    = "characters"
	PrefixAbilities     = "abilities"
	PrefixLightcones    = "lightcones"
	PrefixRelicIcons    = "relics/icons"
	PrefixRelicSetIcons = "relics/set_icons"
)

const (
	maxKeyLength      = 255
	maxFilenameLength = 100
	suffixAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	suffixLength      = 7
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ValidateKey rejects empty, absolute, or escaping keys.
func ValidateKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("blob key is required")
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("blob key too long")
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("blob key must be relative")
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("invalid blob key")
	}
	if clean == tmpDirName || strings.HasPrefix(clean, tmpDirName+"/") {
		return fmt.Errorf("invalid blob key")
	}
	return nil
}

// HasPrefix reports whether key lives under the given type prefix.
func HasPrefix(key, prefix string) bool {
	return strings.HasPrefix(path.Clean(strings.TrimSpace(key)), prefix+"/")
}

// UploadKey builds the storage key for an uploaded file owned by prefix.
func UploadKey(prefix, filename string) (string, error) {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return "", fmt.Errorf("key prefix is required")
	}
	name := SanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	key := prefix + "/" + name
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// SanitizeFilename reduces a client-supplied filename to a safe base name.
func SanitizeFilename(filename string) string {
	name := strings.TrimSpace(filename)
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if len(name) > maxFilenameLength {
		ext := path.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:maxFilenameLength-len(ext)] + ext
	}
	return name
}

// alternateKey appends a random suffix before the extension of key.
func alternateKey(key string) (string, error) {
	dir, file := path.Split(key)
	ext := path.Ext(file)
	stem := strings.TrimSuffix(file, ext)
	suffix, err := randomSuffix(suffixLength)
	if err != nil {
		return "", err
	}
	return dir + stem + "_" + suffix + ext, nil
}

func randomSuffix(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, length)
	for i := range b {
		out[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(out), nil
}
