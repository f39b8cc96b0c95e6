package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"vocabhero/internal/config"
)

// Cache stores raw PCM16 pronunciations keyed by word text
type Cache interface {
	Get(ctx context.Context, word string) ([]byte, bool, error)
	Put(ctx context.Context, word string, pcm []byte) error
}

// NewCache builds the cache selected by audio.cache
func NewCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (Cache, error) {
	switch cfg.Audio.Cache {
	case "", "none":
		return NopCache{}, nil
	case "disk":
		return NewDiskCache(cfg.Audio.CacheDir)
	case "minio":
		return NewMinioCache(ctx, cfg.Minio, log)
	default:
		return nil, fmt.Errorf("unknown audio cache: %s", cfg.Audio.Cache)
	}
}

// CacheKey sanitises a word into a stable object name
func CacheKey(word string) string {
	sanitized := strings.ToLower(strings.TrimSpace(word))
	sanitized = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			return r
		case unicode.IsSpace(r), r == '_':
			return '_'
		default:
			return -1
		}
	}, sanitized)
	return fmt.Sprintf("word_%s.pcm", sanitized)
}

// NopCache never hits
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NopCache) Put(context.Context, string, []byte) error         { return nil }

// DiskCache keeps one file per word in a directory
type DiskCache struct {
	dir string
}

func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio cache directory: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) Get(_ context.Context, word string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, CacheKey(word)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached audio: %w", err)
	}
	return data, true, nil
}

func (c *DiskCache) Put(_ context.Context, word string, pcm []byte) error {
	path := filepath.Join(c.dir, CacheKey(word))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, pcm, 0o644); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	return nil
}

// Files lists the cached audio files
func (c *DiskCache) Files() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".pcm" {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// MinioCache keeps pronunciations in an S3-compatible bucket
type MinioCache struct {
	client *minio.Client
	bucket string
}

func NewMinioCache(ctx context.Context, cfg config.MinioConfig, log *zap.Logger) (*MinioCache, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check audio bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create audio bucket: %w", err)
		}
		log.Info("created audio bucket", zap.String("bucket", cfg.Bucket))
	}

	return &MinioCache{client: client, bucket: cfg.Bucket}, nil
}

func (c *MinioCache) Get(ctx context.Context, word string) ([]byte, bool, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, CacheKey(word), minio.GetObjectOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch cached audio: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached audio: %w", err)
	}
	return data, true, nil
}

func (c *MinioCache) Put(ctx context.Context, word string, pcm []byte) error {
	_, err := c.client.PutObject(ctx, c.bucket, CacheKey(word), bytes.NewReader(pcm), int64(len(pcm)), minio.PutObjectOptions{
		ContentType: "audio/L16",
	})
	if err != nil {
		return fmt.Errorf("failed to upload audio: %w", err)
	}
	return nil
}
