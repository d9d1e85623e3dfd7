package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CESNET/bota/s3/errors"
)

func TestValidateBucket(t *testing.T) {
	assert.NoError(t, ValidateBucket("list", "Legacy_Bucket"))

	err := ValidateBucket("list", "")
	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "s3.list")
}

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		wantError bool
		errMsg    string
	}{
		{"valid_simple", "my-bucket", false, ""},
		{"valid_with_numbers", "my-bucket123", false, ""},
		{"valid_with_dots", "my.bucket", false, ""},
		{"valid_min_length", "abc", false, ""},
		{"valid_max_length", strings.Repeat("a", 63), false, ""},
		{"valid_leading_digit", "1bucket", false, ""},

		{"empty", "", true, "between 3 and 63"},
		{"too_short", "ab", true, "between 3 and 63"},
		{"too_long", strings.Repeat("a", 64), true, "between 3 and 63"},
		{"uppercase", "MyBucket", true, "lowercase letters"},
		{"underscore", "my_bucket", true, "lowercase letters"},
		{"starts_with_hyphen", "-bucket", true, "start or end"},
		{"ends_with_dot", "bucket.", true, "start or end"},
		{"adjacent_dots", "my..bucket", true, "adjacent periods"},
		{"ip_address", "192.168.1.1", true, "IP address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidBucketName)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
	}{
		{"simple", "file.txt", false},
		{"nested", "dir/sub/file.txt", false},
		{"spaces_and_plus", "my file+1.txt", false},
		{"unicode", "složka/soubor.txt", false},
		{"dot_segments", "a/../b", false},
		{"max_length", strings.Repeat("k", 1024), false},
		{"tab", "src/a\tb.txt", false},
		{"newline", "line\nbreak", false},
		{"nul", "bad\x00key", false},

		{"empty", "", true},
		{"too_long", strings.Repeat("k", 1025), true},
		{"invalid_utf8", "bad\xffkey", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.wantError {
				assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)
				return
			}
			assert.NoError(t, err)
		})
	}
}
