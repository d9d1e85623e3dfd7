package list

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBucket implements S3Interface over a sorted slice of keys.
type fakeBucket struct {
	keys   []string
	calls  []*s3.ListObjectsV2Input
	err    error
	failAt int
}

func (f *fakeBucket) ListObjectsV2(
	_ context.Context,
	input *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	f.calls = append(f.calls, input)
	if f.err != nil && len(f.calls) >= f.failAt {
		return nil, f.err
	}

	start := 0
	if token := aws.ToString(input.ContinuationToken); token != "" {
		_, err := fmt.Sscanf(token, "token-%d", &start)
		if err != nil {
			return nil, err
		}
	}

	var matched []string
	for _, k := range f.keys {
		if !strings.HasPrefix(k, aws.ToString(input.Prefix)) {
			continue
		}
		if after := aws.ToString(input.StartAfter); after != "" && k <= after {
			continue
		}
		matched = append(matched, k)
	}

	end := start + int(aws.ToInt32(input.MaxKeys))
	if end > len(matched) {
		end = len(matched)
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(matched))}
	for _, k := range matched[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(url.QueryEscape(k)),
			Size: aws.Int64(int64(len(k))),
		})
	}
	if end < len(matched) {
		out.NextContinuationToken = aws.String(fmt.Sprintf("token-%d", end))
	}
	return out, nil
}

func keysOf(result *Result) []string {
	keys := make([]string, 0, len(result.Objects))
	for _, o := range result.Objects {
		keys = append(keys, o.Key)
	}
	return keys
}

func TestLister_List(t *testing.T) {
	bucket := &fakeBucket{keys: []string{"a.txt", "dir/b c.txt", "dir/d+e.txt", "dir/f.txt", "z.txt"}}
	lister := New(bucket)

	tests := []struct {
		name      string
		config    *Config
		want      []string
		truncated bool
	}{
		{
			name:   "whole bucket",
			config: &Config{Bucket: "b"},
			want:   []string{"a.txt", "dir/b c.txt", "dir/d+e.txt", "dir/f.txt", "z.txt"},
		},
		{
			name:   "prefix",
			config: &Config{Bucket: "b", Prefix: "dir/"},
			want:   []string{"dir/b c.txt", "dir/d+e.txt", "dir/f.txt"},
		},
		{
			name:      "limit",
			config:    &Config{Bucket: "b", MaxKeys: 2},
			want:      []string{"a.txt", "dir/b c.txt"},
			truncated: true,
		},
		{
			name:   "offset",
			config: &Config{Bucket: "b", StartAfter: "dir/f.txt"},
			want:   []string{"z.txt"},
		},
		{
			name:   "offset past end",
			config: &Config{Bucket: "b", StartAfter: "zzz"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := lister.List(context.Background(), tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keysOf(result))
			assert.Equal(t, tt.truncated, result.IsTruncated)

			last := bucket.calls[len(bucket.calls)-1]
			assert.Equal(t, types.EncodingTypeUrl, last.EncodingType)
		})
	}
}

func TestLister_ListError(t *testing.T) {
	boom := errors.New("boom")
	lister := New(&fakeBucket{err: boom, failAt: 1})

	_, err := lister.List(context.Background(), &Config{Bucket: "b"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestLister_ListAll(t *testing.T) {
	keys := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		keys = append(keys, fmt.Sprintf("p/obj-%02d", i))
	}
	keys = append(keys, "q/other")
	bucket := &fakeBucket{keys: keys}

	var got []string
	for res := range New(bucket).ListAll(context.Background(), &Config{Bucket: "b", Prefix: "p/", MaxKeys: 10}) {
		require.NoError(t, res.Err)
		got = append(got, res.Object.Key)
	}

	assert.Equal(t, keys[:25], got)
	assert.Len(t, bucket.calls, 3)
	assert.Nil(t, bucket.calls[0].ContinuationToken)
	assert.Equal(t, "token-10", aws.ToString(bucket.calls[1].ContinuationToken))
}

func TestLister_ListAllError(t *testing.T) {
	keys := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		keys = append(keys, fmt.Sprintf("obj-%d", i))
	}
	boom := errors.New("boom")
	bucket := &fakeBucket{keys: keys, err: boom, failAt: 2}

	var (
		got     int
		lastErr error
	)
	for res := range New(bucket).ListAll(context.Background(), &Config{Bucket: "b", MaxKeys: 2}) {
		if res.Err != nil {
			lastErr = res.Err
			continue
		}
		got++
	}

	assert.Equal(t, 2, got)
	assert.ErrorIs(t, lastErr, boom)
}

func TestDecodeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "plain", want: "plain"},
		{in: "with+space", want: "with space"},
		{in: "a%2Bb", want: "a+b"},
		{in: "dir%2Ff%C3%A9.txt", want: "dir/fé.txt"},
		{in: "bad%zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DecodeKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
