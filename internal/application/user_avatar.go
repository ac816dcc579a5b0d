package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/userhub/userhub/pkg/helpers"
)

// UploadAvatar stores an avatar image in GCS and records its URL on the
// users row. The avatar is a side channel: replace/patch never touch it.
func (s *Service) UploadAvatar(ctx context.Context, userID int64, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	u, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", strconv.FormatInt(userID, 10), uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.Users.UpdateAvatarURL(ctx, userID, url); err != nil {
		return "", err
	}
	u.AvatarURL = url
	s.indexUser(ctx, u)
	return url, nil
}
