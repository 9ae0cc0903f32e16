package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/stanmart1/skylyt-core/internal/domain"
)

// CloudinaryStore uploads proof-of-payment files to Cloudinary and returns
// the public URL stored on the payment.
type CloudinaryStore struct {
	cld     *cloudinary.Cloudinary
	timeout time.Duration
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string, timeout time.Duration) (domain.ObjectStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	return &CloudinaryStore{cld: cld, timeout: timeout}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: folder,
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}
	return resp.SecureURL, nil
}
