package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "bucket and key",
			err:  NewError("download", errors.New("boom")).WithBucket("b").WithKey("k"),
			want: "s3.download b/k: boom",
		},
		{
			name: "bucket only",
			err:  NewError("list", errors.New("boom")).WithBucket("b"),
			want: "s3.list bucket b: boom",
		},
		{
			name: "key only",
			err:  NewError("upload", errors.New("boom")).WithKey("k"),
			want: "s3.upload object k: boom",
		},
		{
			name: "no context",
			err:  NewError("listBuckets", errors.New("boom")),
			want: "s3.listBuckets: boom",
		},
		{
			name: "with message",
			err:  NewError("upload", ErrInvalidInput).WithMessage("bucket name cannot be empty"),
			want: "s3.upload: bucket name cannot be empty: s3: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "typed no such key",
			err:   &types.NoSuchKey{Message: stringPtr("missing")},
			check: IsObjectNotFound,
		},
		{
			name:  "head not found",
			err:   &types.NotFound{},
			check: IsObjectNotFound,
		},
		{
			name:  "typed no such bucket",
			err:   &types.NoSuchBucket{},
			check: IsBucketNotFound,
		},
		{
			name:  "generic access denied",
			err:   &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
			check: IsAccessDenied,
		},
		{
			name: "wrapped generic no such bucket",
			err: fmt.Errorf("operation error S3: GetObject: %w",
				&smithy.GenericAPIError{Code: "NoSuchBucket"}),
			check: IsBucketNotFound,
		},
		{
			name: "bucket not empty",
			err:  &smithy.GenericAPIError{Code: "BucketNotEmpty"},
			check: func(err error) bool {
				return errors.Is(err, ErrBucketNotEmpty)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.True(t, tt.check(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassify_Passthrough(t *testing.T) {
	assert.NoError(t, Classify(nil))

	plain := errors.New("connection refused")
	assert.Same(t, plain, Classify(plain))

	unknown := &smithy.GenericAPIError{Code: "SlowDown"}
	assert.Equal(t, error(unknown), Classify(unknown))
}

func TestFromCode(t *testing.T) {
	assert.Equal(t, ErrObjectNotFound, FromCode("NoSuchKey"))
	assert.Equal(t, ErrBucketNotFound, FromCode("NoSuchBucket"))
	assert.Equal(t, ErrBucketAlreadyExists, FromCode("BucketAlreadyOwnedByYou"))
	assert.Nil(t, FromCode("InternalError"))
	assert.Nil(t, FromCode(""))
}

func stringPtr(s string) *string { return &s }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindOther},
		{"plain", errors.New("x"), KindOther},
		{"object", NewError("download", ErrObjectNotFound).WithKey("k"), KindNotFound},
		{"bucket", NewError("upload", Classify(&types.NoSuchBucket{})), KindNoSuchBucket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KindOf(tt.err)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.String())
		})
	}
}

func TestIsInvalidObjectKey(t *testing.T) {
	assert.True(t, IsInvalidObjectKey(NewError("uploadFile", ErrInvalidObjectKey).WithKey("k")))
	assert.False(t, IsInvalidObjectKey(ErrInvalidInput))
	assert.False(t, IsInvalidObjectKey(nil))
}
