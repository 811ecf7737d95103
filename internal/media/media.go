package media

import (
	"path/filepath"
	"strings"
)

// DeliverySuffix marks transcoded artifacts on disk. Originals never carry it.
const DeliverySuffix = ".delivery.mp4"

// DeliveryContentType is the fixed content type served for transcoded artifacts.
const DeliveryContentType = "video/mp4"

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mts":  "video/mp2t",
	".mxf":  "application/mxf",
}

var otherExtensions = map[string]string{
	".wav":  "audio/wav",
	".aif":  "audio/aiff",
	".aiff": "audio/aiff",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".zip":  "application/zip",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// TypeByPath infers a MIME type from the path's file extension. Unknown
// extensions map to application/octet-stream.
func TypeByPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := videoExtensions[ext]; ok {
		return mt
	}
	if mt, ok := otherExtensions[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// IsVideoPath reports whether the path looks like a video file by extension.
func IsVideoPath(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsDeliveryArtifact reports whether the path names a transcoded artifact.
func IsDeliveryArtifact(path string) bool {
	return strings.HasSuffix(strings.ToLower(filepath.Base(path)), DeliverySuffix)
}

// DeliveryPath derives the artifact path for an original:
// /p/clip.mov -> /p/clip.delivery.mp4.
func DeliveryPath(originalPath string) string {
	base := filepath.Base(originalPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(filepath.Dir(originalPath), stem+DeliverySuffix)
}

// OriginalStem returns the artifact's original file stem: /p/clip.delivery.mp4
// -> clip. The caller matches it against originals in the same directory,
// since the original's extension is not recoverable from the artifact name.
func OriginalStem(artifactPath string) string {
	base := filepath.Base(artifactPath)
	return strings.TrimSuffix(base, DeliverySuffix)
}

// Stem returns the path's base name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
