package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (u *recordingUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.input = in
	u.body, _ = io.ReadAll(in.Body)
	return &manager.UploadOutput{}, nil
}

func TestStatsKey(t *testing.T) {
	at := time.Date(2026, 5, 4, 3, 2, 1, 500_000_000, time.FixedZone("X", 2*3600))
	assert.Equal(t, "stats/2026-05-04/20260504T010201.500Z.json", StatsKey(at))
}

func TestPutStatsSnapshot(t *testing.T) {
	up := &recordingUploader{}
	s := &S3{uploader: up, cfg: S3Config{Region: "eu-west-1", StatsBucket: "vp-stats"}, logger: zap.NewNop()}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	url, err := s.PutStatsSnapshot(context.Background(), at, map[string]int{"total_videos": 4})
	require.NoError(t, err)
	assert.Equal(t, "https://vp-stats.s3.eu-west-1.amazonaws.com/stats/2026-01-02/20260102T030405.000Z.json", url)
	assert.Equal(t, "vp-stats", *up.input.Bucket)
	assert.Equal(t, ContentTypeJSON, *up.input.ContentType)
	assert.JSONEq(t, `{"total_videos":4}`, string(up.body))
}

func TestPutStatsSnapshotErrors(t *testing.T) {
	s := &S3{uploader: &recordingUploader{}, logger: zap.NewNop()}
	_, err := s.PutStatsSnapshot(context.Background(), time.Now(), struct{}{})
	require.Error(t, err)

	s = &S3{uploader: &recordingUploader{err: errors.New("denied")}, cfg: S3Config{StatsBucket: "b"}, logger: zap.NewNop()}
	_, err = s.PutStatsSnapshot(context.Background(), time.Now(), struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}
