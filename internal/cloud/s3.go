package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
)

const snapshotPrefix = "snapshots"

// S3API is the subset of the S3 client used for snapshot exports.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter archives dashboard snapshots as JSON objects.
type S3Exporter struct {
	svc    S3API
	bucket string
}

func NewS3Exporter(svc S3API, bucket string) *S3Exporter {
	return &S3Exporter{svc: svc, bucket: bucket}
}

func NewS3ExporterFromConfig(ctx context.Context, region, bucket string) (*S3Exporter, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewS3Exporter(s3.NewFromConfig(cfg), bucket), nil
}

// SnapshotKey names the object for a snapshot taken at t.
func SnapshotKey(t time.Time) string {
	return path.Join(snapshotPrefix, t.UTC().Format("20060102T150405.000Z")+".json")
}

// Export uploads the snapshot and returns its s3:// location.
func (e *S3Exporter) Export(ctx context.Context, snap domain.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := SnapshotKey(snap.GeneratedAt)
	_, err = e.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"generated-at": snap.GeneratedAt.UTC().Format(time.RFC3339),
			"log-count":    fmt.Sprintf("%d", snap.Summary.Total),
		},
	})
	if err != nil {
		return "", &domain.StoreError{Op: "upload snapshot", Err: err}
	}

	return fmt.Sprintf("s3://%s/%s", e.bucket, key), nil
}
