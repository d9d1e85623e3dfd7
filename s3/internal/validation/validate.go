// Package validation checks bucket names and object keys before they are
// sent to the object store.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/CESNET/bota/s3/errors"
)

// maxKeyLength is the S3 limit on UTF-8 encoded key length.
const maxKeyLength = 1024

// ValidateBucket checks that a bucket name was given at all.
// Existing buckets may predate the DNS naming rules, so nothing else is checked.
func ValidateBucket(op, bucket string) error {
	if bucket == "" {
		return errors.NewError(op, errors.ErrInvalidInput).
			WithMessage("bucket name cannot be empty")
	}
	return nil
}

// ValidateBucketName validates that a new bucket name is DNS-compliant.
func ValidateBucketName(bucket string) error {
	fail := func(msg string) error {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(msg)
	}

	if len(bucket) < 3 || len(bucket) > 63 {
		return fail("bucket name must be between 3 and 63 characters long")
	}

	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return fail("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	first, last := bucket[0], bucket[len(bucket)-1]
	if first == '-' || first == '.' || last == '-' || last == '.' {
		return fail("bucket name cannot start or end with a hyphen or dot")
	}

	if strings.Contains(bucket, "..") {
		return fail("bucket name cannot contain two adjacent periods")
	}

	if isIPAddress(bucket) {
		return fail("bucket name cannot be formatted as an IP address")
	}

	return nil
}

// ValidateObjectKey validates that an object key can be stored. Any UTF-8
// text is a valid key, control characters included.
func ValidateObjectKey(key string) error {
	fail := func(msg string) error {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage(msg)
	}

	if key == "" {
		return fail("object key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return fail("object key cannot exceed 1024 bytes")
	}
	if !utf8.ValidString(key) {
		return fail("object key must be valid UTF-8")
	}

	return nil
}

func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// isIPAddress checks if a string is formatted as a dotted IPv4 address.
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if part == "" || len(part) > 3 {
			return false
		}
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
		}
	}

	return true
}
