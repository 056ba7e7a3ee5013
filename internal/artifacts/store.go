// Package artifacts persists finished run reports.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoReport is returned when no stored report exists for a run.
var ErrNoReport = errors.New("no report stored for run")

// Store saves and retrieves run reports. Saving is best-effort; the runner
// logs and ignores failures.
type Store interface {
	SaveReport(ctx context.Context, runID string, report []byte) error
	GetReport(ctx context.Context, runID string) ([]byte, error)
}

// ObjectClient is the object-storage surface the S3 store needs.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	CreateBucket(ctx context.Context, bucketName string) error
	PutObject(ctx context.Context, bucketName, key string, data []byte) error
	GetObject(ctx context.Context, bucketName, key string) ([]byte, error)
	ListObjects(ctx context.Context, bucketName, prefix string) ([]string, error)
}

// S3Store keeps reports in an S3-compatible bucket.
type S3Store struct {
	client ObjectClient
	bucket string
}

// NewS3Store creates an S3Store. The bucket is created if missing.
func NewS3Store(ctx context.Context, client ObjectClient, bucket string) (*S3Store, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check artifacts bucket: %w", err)
	}
	if !exists {
		if err := client.CreateBucket(ctx, bucket); err != nil {
			return nil, fmt.Errorf("failed to create artifacts bucket: %w", err)
		}
	}
	return &S3Store{client: client, bucket: bucket}, nil
}

// SaveReport uploads one report under runs/<date>/<id>.json.
func (s *S3Store) SaveReport(ctx context.Context, runID string, report []byte) error {
	key := fmt.Sprintf("runs/%s/%s.json", time.Now().UTC().Format("2006-01-02"), runID)
	if err := s.client.PutObject(ctx, s.bucket, key, report); err != nil {
		return fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return nil
}

// GetReport downloads the stored report for a run. Keys carry a date prefix,
// so the run id is located by listing the runs/ tree.
func (s *S3Store) GetReport(ctx context.Context, runID string) ([]byte, error) {
	keys, err := s.client.ListObjects(ctx, s.bucket, "runs/")
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	suffix := "/" + runID + ".json"
	for _, key := range keys {
		if strings.HasSuffix(key, suffix) {
			return s.client.GetObject(ctx, s.bucket, key)
		}
	}
	return nil, ErrNoReport
}

// NopStore discards reports. Used when no artifact bucket is configured.
type NopStore struct{}

// SaveReport does nothing.
func (NopStore) SaveReport(context.Context, string, []byte) error { return nil }

// GetReport always reports a missing report.
func (NopStore) GetReport(context.Context, string) ([]byte, error) { return nil, ErrNoReport }
