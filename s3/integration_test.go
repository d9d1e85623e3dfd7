//go:build integration

package s3_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CESNET/bota/s3"
	"github.com/CESNET/bota/s3/errors"
	"github.com/CESNET/bota/s3/internal/testutil"
)

func newLocalStackClient(t *testing.T) (*s3.Client, string) {
	t.Helper()
	ctx := context.Background()

	container := testutil.StartLocalStack(t)
	cfg, err := container.AWSConfig(ctx)
	require.NoError(t, err)

	client, err := s3.New(ctx,
		s3.WithAWSConfig(&cfg),
		s3.WithEndpoint(container.Endpoint()),
		s3.WithForcePathStyle(true),
	)
	require.NoError(t, err)

	bucket := testutil.GenerateTestBucketName("bota")
	require.NoError(t, client.CreateBucket(ctx, bucket))
	return client, bucket
}

func TestIntegrationUploadDownload(t *testing.T) {
	ctx := context.Background()
	client, bucket := newLocalStackClient(t)

	dir := t.TempDir()
	data := testutil.GenerateRandomData(12 * 1024 * 1024)
	src := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(src, data, 0o644))

	tracker := &testutil.MockProgressTracker{}
	_, err := client.UploadFile(ctx, bucket, "nested/big file.bin", src, s3.WithProgress(tracker))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), tracker.Bytes())

	dst := filepath.Join(dir, "copy.bin")
	result, err := client.DownloadFile(ctx, bucket, "nested/big file.bin", dst)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), result.Size)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = client.DownloadFile(ctx, bucket, "missing.bin", filepath.Join(dir, "missing.bin"))
	require.Error(t, err)
	assert.True(t, errors.IsObjectNotFound(err))
	assert.NoFileExists(t, filepath.Join(dir, "missing.bin"))
}

func TestIntegrationListOperations(t *testing.T) {
	ctx := context.Background()
	client, bucket := newLocalStackClient(t)

	src := filepath.Join(t.TempDir(), "small.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	keys := []string{"a b.txt", "c+d.txt"}
	for i := range 5 {
		keys = append(keys, fmt.Sprintf("dir/%d.txt", i))
	}
	for _, key := range keys {
		_, err := client.UploadFile(ctx, bucket, key, src)
		require.NoError(t, err)
	}

	page, err := client.List(ctx, bucket, "", s3.WithMaxKeys(2))
	require.NoError(t, err)
	require.Len(t, page.Objects, 2)
	assert.Equal(t, "a b.txt", page.Objects[0].Key)
	assert.Equal(t, "c+d.txt", page.Objects[1].Key)
	assert.True(t, page.IsTruncated)

	page, err = client.List(ctx, bucket, "dir/", s3.WithStartAfter("dir/2.txt"))
	require.NoError(t, err)
	require.Len(t, page.Objects, 2)
	assert.Equal(t, "dir/3.txt", page.Objects[0].Key)

	all, err := client.ListAll(ctx, bucket, "dir/")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	buckets, err := client.ListBuckets(ctx)
	require.NoError(t, err)
	var names []string
	for _, b := range buckets {
		names = append(names, b.Name)
	}
	assert.Contains(t, names, bucket)
}

func TestIntegrationBucketLifecycle(t *testing.T) {
	ctx := context.Background()
	client, bucket := newLocalStackClient(t)

	src := filepath.Join(t.TempDir(), "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	_, err := client.UploadFile(ctx, bucket, "f.txt", src)
	require.NoError(t, err)

	err = client.DeleteBucket(ctx, bucket)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBucketNotEmpty)

	require.NoError(t, client.Delete(ctx, bucket, "f.txt"))
	require.NoError(t, client.DeleteBucket(ctx, bucket))

	_, err = client.ListAll(ctx, bucket, "")
	require.Error(t, err)
	assert.True(t, errors.IsBucketNotFound(err))
}
