package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"silverrail/internal/blobstore"
)

const (
	uploadFormField = "file"
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 1 << 20
	sniffLen          = 512
)

// readUpload parses a multipart request and returns its "file" part. The
// media type is sniffed from content, never taken from the client. Callers
// must Close the upload and remove the parsed form.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploads.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.uploads.MultipartMaxMemory); err != nil {
		s.writeServiceError(w, r, classifyMultipartError(err))
		return upload{}, false
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("%s is required", uploadFormField), ErrCodeMissingRequired))
		return upload{}, false
	}
	if header.Size > s.uploads.MaxUploadBytes {
		file.Close()
		s.writeServiceError(w, r, uploadTooLarge(s.uploads.MaxUploadBytes))
		return upload{}, false
	}

	buffered := bufio.NewReader(file)
	peek, _ := buffered.Peek(sniffLen)
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(peek))
	if err != nil {
		mediaType = "application/octet-stream"
	}
	if _, ok := s.allowedMedia[mediaType]; !ok {
		file.Close()
		s.writeServiceError(w, r, makeAPIError(http.StatusUnsupportedMediaType, "unsupported_media_type", ErrCodeInvalidMediaType,
			fmt.Errorf("media type %s is not allowed", mediaType)))
		return upload{}, false
	}

	return upload{
		Filename:  header.Filename,
		MediaType: mediaType,
		Body:      buffered,
		closer:    file,
	}, true
}

// withUpload runs fn with the uploaded file of the request and releases it
// afterwards.
func (s *Server) withUpload(w http.ResponseWriter, r *http.Request, fn func(up upload)) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	defer func() {
		up.Close()
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()
	fn(up)
}

func classifyMultipartError(err error) error {
	if err == nil {
		return nil
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
		return makeAPIError(http.StatusRequestEntityTooLarge, "request_too_large", ErrCodeRequestTooLarge, fmt.Errorf("request body too large"))
	}
	return badRequest(fmt.Errorf("invalid multipart body: %w", err))
}

func uploadTooLarge(limit int64) error {
	return makeAPIError(http.StatusRequestEntityTooLarge, "request_too_large", ErrCodeRequestTooLarge,
		fmt.Errorf("file exceeds %d bytes", limit))
}

// handleMedia serves stored blob content under the public media URL.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := blobstore.ValidateKey(key); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(err, ErrCodeInvalidFileKey))
		return
	}

	notFound := notFoundCode(fmt.Errorf("file %s not found", key), ErrCodeFileNotFound)
	exists, err := s.blobs.Exists(r.Context(), key)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusInternalServerError, blobFailure(err))
		return
	}
	if !exists {
		s.writeErrorReq(w, r, http.StatusNotFound, notFound)
		return
	}

	rc, err := s.blobs.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.writeErrorReq(w, r, http.StatusNotFound, notFound)
			return
		}
		s.writeErrorReq(w, r, http.StatusInternalServerError, blobFailure(err))
		return
	}
	defer rc.Close()

	w.Header().Set("X-Content-Type-Options", "nosniff")
	if seeker, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, key, modTime(rc), seeker)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log().Warn("stream media", "key", key, "error", err)
	}
}

func modTime(rc io.Reader) time.Time {
	if stater, ok := rc.(interface{ Stat() (os.FileInfo, error) }); ok {
		if info, err := stater.Stat(); err == nil {
			return info.ModTime()
		}
	}
	return time.Time{}
}
