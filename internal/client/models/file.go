package models

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// FileType is the coarse classification shown in the drive views.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeDocument FileType = "document"
	FileTypeOther    FileType = "other"
)

// FileRecord is a row of the remote metadata store. The client only ever
// holds read-only copies fetched per session; the store owns the data.
type FileRecord struct {
	ID        string
	OwnerID   string
	Name      string
	Size      int64
	Type      FileType
	URL       string
	Path      string
	Folder    string
	CreatedAt time.Time
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".svg": {}, ".webp": {},
}

var documentExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".txt": {}, ".md": {},
}

// DetectFileType classifies a file name by extension.
func DetectFileType(name string) FileType {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := imageExtensions[ext]; ok {
		return FileTypeImage
	}
	if _, ok := documentExtensions[ext]; ok {
		return FileTypeDocument
	}
	return FileTypeOther
}

// FormatSize renders a byte count for display ("1.5 MB").
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	return s + " " + units[i]
}
