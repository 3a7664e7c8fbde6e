package handlers

import (
	"context"
	"io"
	"os"
)

// SaveMediaFile stores an uploaded attachment binary and returns the
// stored location. Routes to Google Cloud Storage in production and the
// local filesystem in development.
func SaveMediaFile(ctx context.Context, name string, src io.Reader) (string, error) {
	// Check if running in production (Google Cloud)
	// Google Cloud sets GOOGLE_APPLICATION_CREDENTIALS or K_SERVICE (Cloud Run)
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != "" // Cloud Run indicator

	if useGCS {
		return saveMediaGCS(ctx, name, src)
	}
	return saveMediaLocal(name, src)
}
