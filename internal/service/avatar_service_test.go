package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"inkwell/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func newAvatarService(t *testing.T, userRepo *userRepoStub) *AvatarService {
	t.Helper()
	return NewAvatarService(userRepo, &config.Config{AvatarDir: t.TempDir()})
}

func TestAvatarService_UpdateAvatar_Downscales(t *testing.T) {
	t.Parallel()

	src := pngBytes(t, 600, 400)
	var storedUserID uint
	var storedPath string
	userRepo := noopUserRepo()
	userRepo.updateAvatarPathFn = func(_ context.Context, userID uint, path string) error {
		storedUserID = userID
		storedPath = path
		return nil
	}
	svc := newAvatarService(t, userRepo)

	url, err := svc.UpdateAvatar(context.Background(), UpdateAvatarInput{UserID: 3, Content: src})
	require.NoError(t, err)

	sum := sha256.Sum256(src)
	prefix := hex.EncodeToString(sum[:])[:16]
	assert.Equal(t, "/media/avatars/"+prefix+"/avatar.jpg", url)
	assert.Equal(t, uint(3), storedUserID)
	assert.Equal(t, prefix+"/avatar.jpg", storedPath)

	jpgPath := filepath.Join(svc.Dir(), prefix, "avatar.jpg")
	f, err := os.Open(jpgPath)
	require.NoError(t, err)
	defer f.Close()
	decoded, format, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	// 600x400 scaled to fit 300x300 preserving aspect ratio
	assert.Equal(t, 300, decoded.Bounds().Dx())
	assert.Equal(t, 200, decoded.Bounds().Dy())

	_, err = os.Stat(filepath.Join(svc.Dir(), prefix, "avatar.webp"))
	require.NoError(t, err, "webp rendition should be written alongside the jpeg")
}

func TestAvatarService_UpdateAvatar_NeverUpscales(t *testing.T) {
	t.Parallel()

	src := pngBytes(t, 120, 80)
	svc := newAvatarService(t, noopUserRepo())

	_, err := svc.UpdateAvatar(context.Background(), UpdateAvatarInput{UserID: 3, Content: src})
	require.NoError(t, err)

	sum := sha256.Sum256(src)
	prefix := hex.EncodeToString(sum[:])[:16]
	f, err := os.Open(filepath.Join(svc.Dir(), prefix, "avatar.jpg"))
	require.NoError(t, err)
	defer f.Close()
	decoded, _, err := image.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, decoded.Bounds().Dx())
	assert.Equal(t, 80, decoded.Bounds().Dy())
}

func TestAvatarService_UpdateAvatar_ContentAddressed(t *testing.T) {
	t.Parallel()

	src := pngBytes(t, 50, 50)
	svc := newAvatarService(t, noopUserRepo())

	first, err := svc.UpdateAvatar(context.Background(), UpdateAvatarInput{UserID: 3, Content: src})
	require.NoError(t, err)
	second, err := svc.UpdateAvatar(context.Background(), UpdateAvatarInput{UserID: 9, Content: src})
	require.NoError(t, err)
	assert.Equal(t, first, second, "identical uploads should land on the same path")
}

func TestAvatarService_UpdateAvatar_Rejections(t *testing.T) {
	t.Parallel()

	gifBytes := func() []byte {
		img := image.NewPaletted(image.Rect(0, 0, 10, 10), []color.Color{color.Black, color.White})
		buf := bytes.NewBuffer(nil)
		require.NoError(t, gif.Encode(buf, img, nil))
		return buf.Bytes()
	}()

	tests := []struct {
		name    string
		userID  uint
		content []byte
	}{
		{"zero user id", 0, pngBytes(t, 10, 10)},
		{"empty upload", 3, nil},
		{"not an image", 3, []byte("definitely not an image, just some text padding it out")},
		{"gif is not allowed", 3, gifBytes},
	}

	svc := newAvatarService(t, noopUserRepo())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.UpdateAvatar(context.Background(), UpdateAvatarInput{UserID: tt.userID, Content: tt.content})
			assertValidationError(t, err)
		})
	}
}
