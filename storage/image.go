package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

const MaxScreenshotBytes = 10 << 20

var (
	ErrUnsupportedImage = errors.New("screenshot must be a JPG or PNG image")
	ErrTooLarge         = fmt.Errorf("screenshot is larger than %d MB", MaxScreenshotBytes>>20)
)

// SanitizeImage decodes and re-encodes a JPEG or PNG, dropping metadata and
// anything appended to the pixel data. It returns the new bytes, the content
// type and a file extension.
func SanitizeImage(r io.Reader) ([]byte, string, string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxScreenshotBytes+1))
	if err != nil {
		return nil, "", "", err
	}
	if len(raw) > MaxScreenshotBytes {
		return nil, "", "", ErrTooLarge
	}
	detected := http.DetectContentType(raw)
	if detected != "image/jpeg" && detected != "image/png" {
		return nil, "", "", ErrUnsupportedImage
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", "", ErrUnsupportedImage
	}

	var out bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, "", "", err
		}
		return out.Bytes(), "image/jpeg", ".jpg", nil
	case "png":
		if err := png.Encode(&out, img); err != nil {
			return nil, "", "", err
		}
		return out.Bytes(), "image/png", ".png", nil
	default:
		return nil, "", "", ErrUnsupportedImage
	}
}

// SaveScreenshot sanitizes an upload and stores it under a random name in the
// user's folder.
func SaveScreenshot(ctx context.Context, store Store, userID int64, r io.Reader) (string, error) {
	clean, contentType, ext, err := SanitizeImage(r)
	if err != nil {
		return "", err
	}
	key := "screenshots/" + strconv.FormatInt(userID, 10) + "/" + uuid.NewString() + ext
	return store.Put(ctx, key, bytes.NewReader(clean), int64(len(clean)), contentType)
}
