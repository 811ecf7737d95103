package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"shuttle/internal/catalog"
	"shuttle/internal/logging"
	"shuttle/internal/media"
)

var (
	// ErrContentNotFound is returned when neither the delivery artifact nor
	// the original exists on disk for a cataloged file.
	ErrContentNotFound = errors.New("no readable content for file")
	// ErrUnsatisfiableRange is returned when a byte range starts at or past
	// the end of the content.
	ErrUnsatisfiableRange = errors.New("requested range not satisfiable")
)

// Source describes the bytes chosen for delivery of one file.
type Source struct {
	Path        string
	ContentType string
	Size        int64
	// Transcoded reports whether the delivery artifact was chosen over the
	// original.
	Transcoded bool
}

// Server picks the best available bytes for a cataloged file and serves them
// over HTTP with byte-range support. Completed conversions are preferred;
// everything else falls back to the original file.
type Server struct {
	logger *slog.Logger
}

// NewServer builds a stream Server. The caller supplies catalog records.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		logger: logging.NewComponentLogger(logger, "stream"),
	}
}

// Resolve decides which file backs delivery of the record. The delivery
// artifact wins when the conversion is completed and the artifact is still
// on disk; otherwise the original is used. A record with no readable bytes
// at all yields ErrContentNotFound.
func (s *Server) Resolve(ctx context.Context, record *catalog.FileRecord) (*Source, error) {
	if record.Status == catalog.StatusCompleted && record.TranscodedPath != "" {
		if info, err := os.Stat(record.TranscodedPath); err == nil {
			return &Source{
				Path:        record.TranscodedPath,
				ContentType: media.DeliveryContentType,
				Size:        info.Size(),
				Transcoded:  true,
			}, nil
		}
		s.logger.Warn("completed artifact missing, falling back to original",
			logging.Int64(logging.FieldFileID, record.ID),
			logging.String("artifact", record.TranscodedPath))
	}
	info, err := os.Stat(record.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("stat original: %w", err)
	}
	contentType := record.MimeType
	if contentType == "" {
		contentType = media.TypeByPath(record.Path)
	}
	return &Source{
		Path:        record.Path,
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}

// byteRange is a half-open [start, start+length) window into the content.
type byteRange struct {
	start  int64
	length int64
}

func (r byteRange) end() int64 {
	return r.start + r.length - 1
}

// parseRange interprets a single-range Range header against the given size.
// A missing, empty, or multi-part header yields nil so the caller serves the
// full content. Malformed ranges are also ignored rather than rejected;
// only a syntactically valid range that lies past the end of the content is
// an error.
func parseRange(header string, size int64) (*byteRange, error) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(header, "bytes=") {
		return nil, nil
	}
	spec := strings.TrimPrefix(header, "bytes=")
	if strings.Contains(spec, ",") {
		return nil, nil
	}
	dash := strings.Index(spec, "-")
	if dash < 0 {
		return nil, nil
	}
	startPart := strings.TrimSpace(spec[:dash])
	endPart := strings.TrimSpace(spec[dash+1:])

	if startPart == "" {
		// Suffix form: the final N bytes.
		n, err := strconv.ParseInt(endPart, 10, 64)
		if err != nil || n <= 0 {
			return nil, nil
		}
		if n > size {
			n = size
		}
		if n == 0 {
			return nil, ErrUnsatisfiableRange
		}
		return &byteRange{start: size - n, length: n}, nil
	}

	start, err := strconv.ParseInt(startPart, 10, 64)
	if err != nil || start < 0 {
		return nil, nil
	}
	if start >= size {
		return nil, ErrUnsatisfiableRange
	}
	if endPart == "" {
		return &byteRange{start: start, length: size - start}, nil
	}
	end, err := strconv.ParseInt(endPart, 10, 64)
	if err != nil || end < start {
		return nil, nil
	}
	if end >= size {
		end = size - 1
	}
	return &byteRange{start: start, length: end - start + 1}, nil
}

// Serve writes the resolved content for the record, honoring a single byte
// range when the client sends one.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, record *catalog.FileRecord) {
	source, err := s.Resolve(r.Context(), record)
	if err != nil {
		if errors.Is(err, ErrContentNotFound) {
			http.Error(w, "content not found", http.StatusNotFound)
			return
		}
		s.logger.Error("content resolution failed",
			logging.Int64(logging.FieldFileID, record.ID),
			logging.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	requested, err := parseRange(r.Header.Get("Range"), source.Size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", source.Size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	handle, err := os.Open(source.Path)
	if err != nil {
		s.logger.Error("content open failed",
			logging.Int64(logging.FieldFileID, record.ID),
			logging.String("path", source.Path),
			logging.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer handle.Close()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", source.ContentType)

	if requested == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(source.Size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := io.Copy(w, handle); err != nil {
			s.logger.Debug("content copy interrupted",
				logging.Int64(logging.FieldFileID, record.ID),
				logging.Error(err))
		}
		return
	}

	if _, err := handle.Seek(requested.start, io.SeekStart); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Length", strconv.FormatInt(requested.length, 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", requested.start, requested.end(), source.Size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.CopyN(w, handle, requested.length); err != nil {
		s.logger.Debug("range copy interrupted",
			logging.Int64(logging.FieldFileID, record.ID),
			logging.Error(err))
	}
}
