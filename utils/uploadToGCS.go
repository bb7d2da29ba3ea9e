package utils

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const XlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// getGoogleClient initializes a Google Cloud Storage client
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC. GCS_CREDENTIALS_JSON allows explicit credentials when running locally.
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func ExportBucket() string {
	return strings.TrimSpace(os.Getenv("EXPORT_GCS_BUCKET"))
}

// ExportObjectName builds exports/<kind>/<yyyy>/<mm>/<name>_<unix>.xlsx
func ExportObjectName(kind string, name string, now time.Time) string {
	return path.Join("exports", kind, now.Format("2006"), now.Format("01"),
		fmt.Sprintf("%s_%d.xlsx", name, now.Unix()))
}

// ArchiveExport stores a generated spreadsheet in EXPORT_GCS_BUCKET.
// It is a no-op returning false when no bucket is configured.
func ArchiveExport(ctx context.Context, objectName string, data []byte) (bool, error) {
	bucketName := ExportBucket()
	if bucketName == "" {
		return false, nil
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return false, &UpstreamError{Service: "object storage", Err: err}
	}
	defer client.Close()

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = XlsxContentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return false, &UpstreamError{Service: "object storage", Err: fmt.Errorf("failed to upload export: %w", err)}
	}
	if err := wc.Close(); err != nil {
		return false, &UpstreamError{Service: "object storage", Err: fmt.Errorf("failed to close writer: %w", err)}
	}
	return true, nil
}
