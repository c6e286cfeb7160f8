// Package uploader pushes staged cover images to the media host and owns
// the lifetime of the local temp file: one staged file, one removal,
// success or failure.
package uploader

import (
	"context"
	"os"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	cldUploader "github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	CloudName string        `envconfig:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string        `envconfig:"CLOUDINARY_API_KEY"`
	APISecret string        `envconfig:"CLOUDINARY_API_SECRET"`
	Folder    string        `envconfig:"CLOUDINARY_FOLDER" default:"books"`
	Timeout   time.Duration `envconfig:"CLOUDINARY_TIMEOUT" default:"1m"`
}

type Cloudinary struct {
	client *cloudinary.Cloudinary
	cfg    Config
	log    *zap.Logger
}

func NewCloudinary(cfg Config, log *zap.Logger) (*Cloudinary, error) {
	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, errors.Wrap(err, "cloudinary init")
	}
	return &Cloudinary{
		client: client,
		cfg:    cfg,
		log:    log.Named("uploader"),
	}, nil
}

// Upload sends the file at localPath to Cloudinary and returns its durable
// URL. The local file is removed whatever the outcome.
func (u *Cloudinary) Upload(ctx context.Context, localPath string) (string, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			u.log.Warn("remove temp file", zap.String("path", localPath), zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()

	resp, err := u.client.Upload.Upload(ctx, localPath, cldUploader.UploadParams{Folder: u.cfg.Folder})
	if err != nil {
		return "", errors.Wrap(err, "cloudinary upload")
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}

	u.log.Debug("file uploaded", zap.String("url", resp.SecureURL))
	return resp.SecureURL, nil
}
