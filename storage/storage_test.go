package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSanitizeImage(t *testing.T) {
	src := append(pngBytes(t), []byte("<?php echo 'trailing payload'; ?>")...)

	out, contentType, ext, err := SanitizeImage(bytes.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)
	assert.NotContains(t, string(out), "payload")

	_, _, _, err = SanitizeImage(strings.NewReader("GIF89a not really"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestSanitizeImageTooLarge(t *testing.T) {
	oversized := io.MultiReader(bytes.NewReader(pngBytes(t)), bytes.NewReader(make([]byte, MaxScreenshotBytes)))
	_, _, _, err := SanitizeImage(oversized)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = SaveScreenshot(context.Background(), nil, 1, bytes.NewReader(make([]byte, MaxScreenshotBytes+1)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := SaveScreenshot(ctx, store, 2001, bytes.NewReader(pngBytes(t)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "screenshots/2001/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(ref)))
	require.NoError(t, err)

	url, err := store.URL(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+ref, url)

	require.NoError(t, store.Delete(ctx, ref))
	require.NoError(t, store.Delete(ctx, ref), "deleting twice is fine")
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), 1, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "escape.txt", ref)
	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}
