package testutil

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string {
	return aws.String(s)
}

// Int64Ptr returns a pointer to the given int64.
func Int64Ptr(i int64) *int64 {
	return aws.Int64(i)
}

// GenerateRandomData generates random bytes of the specified size.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GenerateTestBucketName generates a valid, DNS-compliant test bucket name.
func GenerateTestBucketName(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Int31n(10000)
	name := fmt.Sprintf("%s-%d-%d", prefix, timestamp, random)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// CalculateETag calculates the single-part ETag for the given data.
func CalculateETag(data []byte) string {
	h := md5.Sum(data)
	return fmt.Sprintf(`"%x"`, h)
}

// CreateTestObject creates a test S3 object structure for ListObjectsV2 responses.
func CreateTestObject(key string, size int64, lastModified time.Time) types.Object {
	return types.Object{
		Key:          StringPtr(key),
		Size:         Int64Ptr(size),
		LastModified: aws.Time(lastModified),
		ETag:         StringPtr(fmt.Sprintf(`"%x"`, md5.Sum([]byte(key)))),
		StorageClass: types.ObjectStorageClassStandard,
	}
}

// CreateListObjectsV2Output creates a test ListObjectsV2Output structure.
func CreateListObjectsV2Output(objects []types.Object, prefix string, truncated bool) *s3.ListObjectsV2Output {
	output := &s3.ListObjectsV2Output{
		Contents:    objects,
		KeyCount:    aws.Int32(int32(len(objects))),
		MaxKeys:     aws.Int32(1000),
		Name:        StringPtr("test-bucket"),
		Prefix:      StringPtr(prefix),
		IsTruncated: aws.Bool(truncated),
	}
	if truncated && len(objects) > 0 {
		output.NextContinuationToken = StringPtr("next-token")
	}
	return output
}

// CreateGetObjectOutput creates a GetObjectOutput serving all of data.
func CreateGetObjectOutput(data []byte) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: Int64Ptr(int64(len(data))),
		ETag:          StringPtr(CalculateETag(data)),
		LastModified:  aws.Time(time.Now()),
	}
}

// CreateRangedGetObjectOutput serves data the way S3 answers a ranged GET,
// which is how the transfer manager downloads objects part by part.
func CreateRangedGetObjectOutput(data []byte, rangeHeader *string) (*s3.GetObjectOutput, error) {
	if rangeHeader == nil {
		return CreateGetObjectOutput(data), nil
	}

	size := int64(len(data))
	start, end, ok := parseRange(*rangeHeader)
	if !ok || start >= size {
		return nil, &smithy.GenericAPIError{
			Code:    "InvalidRange",
			Message: "The requested range is not satisfiable",
		}
	}
	if end >= size {
		end = size - 1
	}

	part := data[start : end+1]
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(part)),
		ContentLength: Int64Ptr(int64(len(part))),
		ContentRange:  StringPtr(fmt.Sprintf("bytes %d-%d/%d", start, end, size)),
		ETag:          StringPtr(CalculateETag(data)),
	}, nil
}
