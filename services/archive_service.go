package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"duomatch_server/matching"
	"duomatch_server/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of *s3.Client the archive uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Presigner is the part of *s3.PresignClient the archive uses
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// NewS3Client builds a client; endpoint points it at an S3-compatible emulator when set
func NewS3Client(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// ArchiveService writes a JSON snapshot of each persisted week to S3
type ArchiveService struct {
	Client    S3API
	Presigner Presigner
	Bucket    string
	Prefix    string
	TTL       time.Duration
}

// WeekSnapshot is the archived document
type WeekSnapshot struct {
	MatchWeek  string               `json:"matchWeek"`
	Outcome    matching.Outcome     `json:"outcome"`
	Reason     string               `json:"reason,omitempty"`
	Stats      matching.Stats       `json:"stats"`
	Matches    []models.WeeklyMatch `json:"matches"`
	ArchivedAt string               `json:"archivedAt"`
}

// Key is the object key of a week's snapshot
func (a *ArchiveService) Key(week time.Time) string {
	return a.Prefix + week.UTC().Format("2006-01-02") + ".json"
}

// Archive uploads the run result and returns the object key
func (a *ArchiveService) Archive(ctx context.Context, res *matching.Result, now time.Time) (string, error) {
	snapshot := WeekSnapshot{
		MatchWeek:  models.FormatMatchWeek(res.Week),
		Outcome:    res.Outcome,
		Reason:     res.Reason,
		Stats:      res.Stats,
		Matches:    res.Matches,
		ArchivedAt: models.FormatMatchWeek(now),
	}
	if snapshot.Matches == nil {
		snapshot.Matches = []models.WeeklyMatch{}
	}
	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := a.Key(res.Week)
	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot to s3://%s/%s: %w", a.Bucket, key, err)
	}
	return key, nil
}

// ReadURL generates a presigned URL for downloading a week's snapshot
func (a *ArchiveService) ReadURL(ctx context.Context, week time.Time) (string, error) {
	ttl := a.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	req, err := a.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.Bucket),
		Key:    aws.String(a.Key(week)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign snapshot URL: %w", err)
	}
	return req.URL, nil
}
