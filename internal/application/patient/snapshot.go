package patient

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SnapshotContentType is the content type of exported snapshots
const SnapshotContentType = "text/csv; charset=utf-8"

// SnapshotUploader stores exported snapshots under a key
type SnapshotUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// Publish exports the loaded patients as CSV and uploads the result under key.
func (c *Collection) Publish(ctx context.Context, up SnapshotUploader, key string) error {
	var buf bytes.Buffer
	if err := c.Export(&buf); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	if err := up.Upload(ctx, key, buf.Bytes(), SnapshotContentType); err != nil {
		c.logger.Error("failed to publish snapshot", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("publish snapshot: %w", err)
	}

	c.logger.Info("snapshot published",
		zap.String("key", key),
		zap.Int("patients", c.Len()),
		zap.Int("bytes", buf.Len()),
	)
	return nil
}
