package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
)

// saveMediaGCS writes an attachment to the configured Google Cloud
// Storage bucket under media/.
func saveMediaGCS(ctx context.Context, name string, src io.Reader) (string, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return "", fmt.Errorf("GCS_BUCKET not configured")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create GCS client: %w", err)
	}
	defer client.Close()

	object := fmt.Sprintf("media/%s", name)
	writer := client.Bucket(bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(writer, src); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", object, err)
	}

	return fmt.Sprintf("gs://%s/%s", bucket, object), nil
}
