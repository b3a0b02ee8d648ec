package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/ledgerline/auditlog/internal/core/ports"
)

const exportKeyPrefix = "export:"

// exportArtifact is the stored envelope; Content is base64-encoded by the
// JSON round trip.
type exportArtifact struct {
	Content     []byte `json:"content"`
	ContentType string `json:"content_type"`
}

type exportRedisRepository struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewExportRedisRepository creates a Redis-backed ExportStore. Expiry is
// delegated to Redis TTLs.
func NewExportRedisRepository(client *redis.Client, logger *logrus.Logger) ports.ExportStore {
	return &exportRedisRepository{
		client: client,
		logger: logger,
	}
}

func (r *exportRedisRepository) Put(ctx context.Context, filename string, content []byte, contentType string, ttl time.Duration) error {
	raw, err := json.Marshal(&exportArtifact{Content: content, ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to marshal export artifact: %w", err)
	}
	if err := r.client.Set(ctx, exportKeyPrefix+filename, raw, ttl).Err(); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"filename": filename}).WithError(err).Error("redis: failed to store export artifact")
		}
		return fmt.Errorf("failed to store export artifact: %w", err)
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"filename": filename, "bytes": len(content), "ttl": ttl}).Debug("redis: export artifact stored")
	}
	return nil
}

func (r *exportRedisRepository) Get(ctx context.Context, filename string) ([]byte, string, bool, error) {
	raw, err := r.client.Get(ctx, exportKeyPrefix+filename).Bytes()
	if err == redis.Nil {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("failed to load export artifact: %w", err)
	}
	var artifact exportArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, "", false, fmt.Errorf("failed to unmarshal export artifact: %w", err)
	}
	return artifact.Content, artifact.ContentType, true, nil
}
