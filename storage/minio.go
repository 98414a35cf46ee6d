package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tunecrate/config"
	"tunecrate/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and makes sure the bucket exists.
// Returns without error when no endpoint is configured; thumbnail mirroring
// is then disabled and songs keep their upstream thumbnail URLs.
func InitMinio(cfg *config.Config) error {
	if cfg.MinioEndpoint == "" {
		logger.Info("[Storage] MinIO endpoint not configured, thumbnail mirroring disabled")
		return nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("[Storage] Created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("[Storage] MinIO initialized", logger.String("bucket", cfg.MinioBucket))
	return nil
}

// GetMinioClient returns the initialized client, or nil when mirroring is
// disabled.
func GetMinioClient() *minio.Client {
	return minioClient
}

// MirrorThumbnail fetches the upstream thumbnail and stores a copy under
// thumbs/<videoID>.jpg. It returns the object path to persist instead of the
// upstream URL. When mirroring is disabled or fails, the caller should keep
// the upstream URL; failures here must never fail song creation.
func MirrorThumbnail(ctx context.Context, cfg *config.Config, videoID, thumbnailURL string) (string, error) {
	if minioClient == nil || thumbnailURL == "" {
		return "", fmt.Errorf("thumbnail mirroring not available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch thumbnail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("thumbnail fetch returned status %d", resp.StatusCode)
	}

	objectName := fmt.Sprintf("thumbs/%s.jpg", videoID)
	_, err = minioClient.PutObject(ctx, cfg.MinioBucket, objectName, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: "image/jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store thumbnail %s: %w", objectName, err)
	}

	return "/media/" + objectName, nil
}
