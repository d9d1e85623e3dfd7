//go:build integration

package minio_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/bota/s3"
	"github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/internal/testutil"
	"github.com/CESNET/bota/s3/minio"
)

func TestIntegrationMinioBackend(t *testing.T) {
	ctx := context.Background()
	container := testutil.StartLocalStack(t)

	t.Setenv("AWS_ACCESS_KEY_ID", testutil.LocalStackAccessKey)
	t.Setenv("AWS_SECRET_ACCESS_KEY", testutil.LocalStackSecretKey)

	client, err := minio.New(
		s3.WithEndpoint(container.Endpoint()),
		s3.WithRegion(container.Region()),
		s3.WithForcePathStyle(true),
	)
	require.NoError(t, err)

	bucket := testutil.GenerateTestBucketName("bota-minio")
	require.NoError(t, client.CreateBucket(ctx, bucket))

	dir := t.TempDir()
	data := testutil.GenerateRandomData(1024 * 1024)
	src := filepath.Join(dir, "in.bin")
	require.NoError(t, os.WriteFile(src, data, 0o644))

	tracker := &testutil.MockProgressTracker{}
	_, err = client.UploadFile(ctx, bucket, "dir/in file.bin", src, s3.WithProgress(tracker))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), tracker.Bytes())

	page, err := client.List(ctx, bucket, "dir/")
	require.NoError(t, err)
	require.Len(t, page.Objects, 1)
	assert.Equal(t, "dir/in file.bin", page.Objects[0].Key)

	dst := filepath.Join(dir, "out.bin")
	_, err = client.DownloadFile(ctx, bucket, "dir/in file.bin", dst)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = client.DownloadFile(ctx, bucket, "nope", filepath.Join(dir, "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsObjectNotFound(err))
	assert.NoFileExists(t, filepath.Join(dir, "nope"))

	require.NoError(t, client.Delete(ctx, bucket, "dir/in file.bin"))
	require.NoError(t, client.DeleteBucket(ctx, bucket))
}
