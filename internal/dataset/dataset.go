package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one training image with the label taken from its parent folder
type Entry struct {
	Path  string
	Label string
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

// IsImageFile reports whether the filename has a supported image extension
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// Collect walks dataDir treating each subfolder as a label and returns the
// image entries in deterministic order. Non-directories and non-image files
// are skipped.
func Collect(dataDir string) ([]Entry, error) {
	labels, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var entries []Entry
	for _, labelDir := range labels {
		if !labelDir.IsDir() {
			continue
		}

		label := labelDir.Name()
		paths, err := ForLabel(dataDir, label)
		if err != nil {
			return nil, err
		}
		for _, p := range paths {
			entries = append(entries, Entry{Path: p, Label: label})
		}
	}

	return entries, nil
}

// ForLabel returns the sorted image paths in one label folder. A missing
// folder is not an error, it is an empty label.
func ForLabel(dataDir, label string) ([]string, error) {
	labelDir := filepath.Join(dataDir, label)

	files, err := os.ReadDir(labelDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read label dir %s: %w", label, err)
	}

	var paths []string
	for _, f := range files {
		if f.IsDir() || !IsImageFile(f.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(labelDir, f.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}

// HashBytes returns the hex sha256 of the content, used to deduplicate
// images across scraping runs and cache embeddings.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Dedupe drops entries whose file content hash was already seen, keeping
// the first occurrence.
func Dedupe(entries []Entry) ([]Entry, error) {
	seen := make(map[string]bool, len(entries))

	var out []Entry
	for _, e := range entries {
		data, err := os.ReadFile(e.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Path, err)
		}

		h := HashBytes(data)
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, e)
	}

	return out, nil
}
