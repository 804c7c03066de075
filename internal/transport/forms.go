package transport

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/spf13/cast"
)

// formOverhead is the room left for non-file fields in a multipart body
const formOverhead = 1 << 20

// parseForm accepts multipart or urlencoded bodies and caps their size.
// It answers the request itself and returns false on failure.
func parseForm(w http.ResponseWriter, r *http.Request, maxPhotoBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+formOverhead)

	err := r.ParseMultipartForm(maxPhotoBytes + formOverhead)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondWithError(w, http.StatusBadRequest, service.ErrPhotoTooLarge.Error())
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, middleware.ErrMalformedBody.Error())
		return false
	}
	return true
}

// readPhoto returns the uploaded "photo" file, or nil when none was sent.
// At most maxBytes+1 bytes are read so an oversized photo is still detected.
func readPhoto(r *http.Request, maxBytes int64) (*service.PhotoUpload, error) {
	file, _, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &service.PhotoUpload{Data: data}, nil
}

// decimalInt reads a base-10 whole number. cast on its own honours 0x and
// leading-zero octal prefixes, so "010" would come back as 8.
func decimalInt(raw string) (int, error) {
	if err := middleware.ValidateVar(raw, "required,number"); err != nil {
		return 0, err
	}
	trimmed := strings.TrimLeft(raw, "0")
	if trimmed == "" {
		return 0, nil
	}
	return cast.ToIntE(trimmed)
}
