package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	DefaultAvatarDir       = "./data/avatars"
	AvatarMaxSize          = 300
	AvatarJPEGQuality      = 85
	AvatarWebPQuality      = 80
	AvatarMaxUploadBytes   = 10 * 1024 * 1024
	avatarHashPrefixLength = 16
)

// AvatarService processes uploaded avatars: decode, downscale to fit
// 300x300, re-encode as JPEG plus a WebP variant, and store them
// content-addressed so re-uploading the same file is a no-op on disk.
type AvatarService struct {
	userRepo  repository.UserRepository
	avatarDir string
}

type UpdateAvatarInput struct {
	UserID  uint
	Content []byte
}

func NewAvatarService(userRepo repository.UserRepository, cfg *config.Config) *AvatarService {
	avatarDir := DefaultAvatarDir
	if cfg != nil && cfg.AvatarDir != "" {
		avatarDir = cfg.AvatarDir
	}
	return &AvatarService{userRepo: userRepo, avatarDir: avatarDir}
}

// UpdateAvatar validates and processes the uploaded image, writes both
// encodings to disk and points the user's profile at the new path. Returns
// the public URL of the JPEG rendition.
func (s *AvatarService) UpdateAvatar(ctx context.Context, in UpdateAvatarInput) (string, error) {
	if in.UserID == 0 {
		return "", models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > AvatarMaxUploadBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", AvatarMaxUploadBytes/(1024*1024)))
	}

	if !isAllowedAvatarMIME(http.DetectContentType(in.Content)) {
		return "", models.NewValidationError("Avatar must be a JPEG, PNG or WebP image")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	switch format {
	case "jpeg", "png", "webp":
	default:
		return "", models.NewValidationError("Avatar must be a JPEG, PNG or WebP image")
	}

	start := time.Now()
	resized := resizeToFit(decoded, AvatarMaxSize, AvatarMaxSize)

	jpgBytes, err := encodeJPEG(resized, AvatarJPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	webpBytes, err := encodeWebP(resized, AvatarWebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	observability.AvatarResizeDuration.Observe(time.Since(start).Seconds())

	// Hash the source bytes, not the encoded output, so the same upload
	// always lands on the same path.
	sum := sha256.Sum256(in.Content)
	prefix := hex.EncodeToString(sum[:])[:avatarHashPrefixLength]

	jpgRel := filepath.ToSlash(filepath.Join(prefix, "avatar.jpg"))
	webpRel := filepath.ToSlash(filepath.Join(prefix, "avatar.webp"))
	_ = webpRel
	jpgAbs := filepath.Join(s.avatarDir, prefix, "avatar.jpg")
	webpAbs := filepath.Join(s.avatarDir, prefix, "avatar.webp")

	if err := writeBytesToFile(jpgAbs, jpgBytes); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := writeBytesToFile(webpAbs, webpBytes); err != nil {
		cleanupFiles([]string{jpgAbs, webpAbs})
		return "", models.NewInternalError(err)
	}

	if err := s.userRepo.UpdateAvatarPath(ctx, in.UserID, jpgRel); err != nil {
		return "", err
	}

	return s.AvatarURL(jpgRel), nil
}

// AvatarURL maps a stored avatar path to its public URL.
func (s *AvatarService) AvatarURL(path string) string {
	if path == "" {
		return ""
	}
	return "/media/avatars/" + path
}

// Dir returns the on-disk root the static file handler serves from.
func (s *AvatarService) Dir() string {
	return s.avatarDir
}

// resizeToFit scales src down to fit within maxWidth x maxHeight, preserving
// aspect ratio. Images already inside the box are returned untouched; we
// never upscale.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedAvatarMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
