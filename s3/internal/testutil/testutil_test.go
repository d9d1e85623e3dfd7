package testutil

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockS3Client(t *testing.T) {
	t.Run("PutObject with custom function", func(t *testing.T) {
		mock := &MockS3Client{
			PutObjectFunc: func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
				assert.Equal(t, "test-bucket", *params.Bucket)
				assert.Equal(t, "test-key", *params.Key)
				return &s3.PutObjectOutput{
					ETag: StringPtr("test-etag"),
				}, nil
			},
		}

		output, err := mock.PutObject(context.Background(), &s3.PutObjectInput{
			Bucket: StringPtr("test-bucket"),
			Key:    StringPtr("test-key"),
		})

		require.NoError(t, err)
		assert.Equal(t, "test-etag", *output.ETag)
	})

	t.Run("returns default when no function set", func(t *testing.T) {
		mock := &MockS3Client{}
		output, err := mock.ListBuckets(context.Background(), &s3.ListBucketsInput{})

		require.NoError(t, err)
		assert.NotNil(t, output)
	})
}

func TestMockBuilder(t *testing.T) {
	t.Run("successful upload", func(t *testing.T) {
		mock := NewMockBuilder().WithSuccessfulUpload().Build()

		output, err := mock.PutObject(context.Background(), &s3.PutObjectInput{
			Bucket: StringPtr("test-bucket"),
			Key:    StringPtr("test-key"),
			Body:   bytes.NewReader([]byte("test data")),
		})

		require.NoError(t, err)
		assert.Equal(t, `"test-etag"`, *output.ETag)
	})

	t.Run("object not found", func(t *testing.T) {
		mock := NewMockBuilder().WithObjectNotFound().Build()

		_, err := mock.GetObject(context.Background(), &s3.GetObjectInput{
			Bucket: StringPtr("test-bucket"),
			Key:    StringPtr("test-key"),
		})

		var noSuchKey *types.NoSuchKey
		assert.ErrorAs(t, err, &noSuchKey)
	})

	t.Run("no such bucket", func(t *testing.T) {
		mock := NewMockBuilder().WithNoSuchBucket().Build()

		_, err := mock.PutObject(context.Background(), &s3.PutObjectInput{})
		var noSuchBucket *types.NoSuchBucket
		assert.ErrorAs(t, err, &noSuchBucket)

		_, err = mock.ListObjectsV2(context.Background(), &s3.ListObjectsV2Input{})
		assert.ErrorAs(t, err, &noSuchBucket)
	})

	t.Run("list buckets", func(t *testing.T) {
		mock := NewMockBuilder().WithListBuckets("one", "two").Build()

		output, err := mock.ListBuckets(context.Background(), &s3.ListBucketsInput{})
		require.NoError(t, err)
		require.Len(t, output.Buckets, 2)
		assert.Equal(t, "two", aws.ToString(output.Buckets[1].Name))
	})
}

func TestMockBuilder_WithObjects(t *testing.T) {
	ctx := context.Background()
	mock := NewMockBuilder().WithObjects(map[string][]byte{
		"a b.txt":   []byte("hello"),
		"dir/1.txt": []byte("one"),
		"dir/2.txt": []byte("two"),
	}).Build()

	t.Run("list with encoding", func(t *testing.T) {
		out, err := mock.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:       StringPtr("b"),
			EncodingType: types.EncodingTypeUrl,
		})
		require.NoError(t, err)
		require.Len(t, out.Contents, 3)
		assert.Equal(t, "a+b.txt", aws.ToString(out.Contents[0].Key))
		assert.Equal(t, "dir%2F1.txt", aws.ToString(out.Contents[1].Key))
	})

	t.Run("list pages", func(t *testing.T) {
		out, err := mock.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:  StringPtr("b"),
			Prefix:  StringPtr("dir/"),
			MaxKeys: aws.Int32(1),
		})
		require.NoError(t, err)
		require.Len(t, out.Contents, 1)
		assert.True(t, aws.ToBool(out.IsTruncated))

		out, err = mock.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            StringPtr("b"),
			Prefix:            StringPtr("dir/"),
			ContinuationToken: out.NextContinuationToken,
		})
		require.NoError(t, err)
		require.Len(t, out.Contents, 1)
		assert.Equal(t, "dir/2.txt", aws.ToString(out.Contents[0].Key))
		assert.False(t, aws.ToBool(out.IsTruncated))
	})

	t.Run("ranged get", func(t *testing.T) {
		out, err := mock.GetObject(ctx, &s3.GetObjectInput{
			Bucket: StringPtr("b"),
			Key:    StringPtr("a b.txt"),
			Range:  StringPtr("bytes=1-100"),
		})
		require.NoError(t, err)
		body, err := io.ReadAll(out.Body)
		require.NoError(t, err)
		assert.Equal(t, "ello", string(body))
		assert.Equal(t, "bytes 1-4/5", aws.ToString(out.ContentRange))
	})

	t.Run("put then get", func(t *testing.T) {
		_, err := mock.PutObject(ctx, &s3.PutObjectInput{
			Bucket: StringPtr("b"),
			Key:    StringPtr("new"),
			Body:   bytes.NewReader([]byte("fresh")),
		})
		require.NoError(t, err)

		out, err := mock.GetObject(ctx, &s3.GetObjectInput{Bucket: StringPtr("b"), Key: StringPtr("new")})
		require.NoError(t, err)
		body, err := io.ReadAll(out.Body)
		require.NoError(t, err)
		assert.Equal(t, "fresh", string(body))
	})
}

func TestCreateRangedGetObjectOutput(t *testing.T) {
	data := []byte("0123456789")

	out, err := CreateRangedGetObjectOutput(data, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(10), aws.ToInt64(out.ContentLength))
	assert.Nil(t, out.ContentRange)

	out, err = CreateRangedGetObjectOutput(data, StringPtr("bytes=2-4"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), aws.ToInt64(out.ContentLength))

	_, err = CreateRangedGetObjectOutput(data, StringPtr("bytes=10-20"))
	assert.Error(t, err)

	_, err = CreateRangedGetObjectOutput(data, StringPtr("garbage"))
	assert.Error(t, err)
}

func TestMockProgressTracker(t *testing.T) {
	tracker := &MockProgressTracker{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Add(2)
		}()
	}
	wg.Wait()
	tracker.Complete()
	tracker.Error(assert.AnError)

	assert.Equal(t, int64(100), tracker.Bytes())
	assert.Equal(t, 50, tracker.Calls())
	assert.True(t, tracker.Completed())
	assert.Equal(t, assert.AnError, tracker.LastError())
}

func TestHelpers(t *testing.T) {
	assert.Len(t, GenerateRandomData(32), 32)

	name := GenerateTestBucketName("Bota_Test")
	assert.Regexp(t, `^bota-test-\d+-\d+$`, name)

	assert.Equal(t, `"5d41402abc4b2a76b9719d911017c592"`, CalculateETag([]byte("hello")))

	out := CreateListObjectsV2Output([]types.Object{CreateTestObject("k", 1, time.Time{})}, "", true)
	assert.Equal(t, "next-token", aws.ToString(out.NextContinuationToken))
}
