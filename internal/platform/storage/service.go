package storage

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/s3/v2"
	"github.com/google/uuid"

	"launchpad/pkg/utils"
)

// Only browser-displayable formats are accepted for profile pictures.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Service stores user uploads on the configured S3 bucket.
type Service struct {
	storage *s3.Storage
}

func NewService(storage *s3.Storage) *Service {
	return &Service{storage: storage}
}

// IsImage reports whether the filename carries an accepted image extension.
func (s *Service) IsImage(filename string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// AvatarKey builds a fresh storage key for an avatar upload. Keys are
// never reused, so a stale CDN cache cannot serve an old picture.
func (s *Service) AvatarKey(userID uuid.UUID) string {
	return fmt.Sprintf("avatar/%s/%s", userID, strings.ToLower(utils.GenerateRandomString(16)))
}

func (s *Service) SaveFile(c *fiber.Ctx, file *multipart.FileHeader, key string) error {
	return c.SaveFileToStorage(file, key, s.storage)
}
