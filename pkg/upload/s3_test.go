package upload

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mrcocacola21/nyc-taxi-dwh-pipeline/pkg/config"
)

func TestNewS3UploaderRequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(logrus.New(), &config.S3Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

func TestNewS3Uploader(t *testing.T) {
	u, err := NewS3Uploader(logrus.New(), &config.S3Config{
		Bucket:          "bench-artifacts",
		EndpointURL:     "http://minio:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		ForcePathStyle:  true,
	})
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestResolvePrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		base   string
		want   string
	}{
		{
			name: "default prefix",
			base: "reports",
			want: "benchmarks/reports",
		},
		{
			name:   "custom prefix",
			prefix: "ci/nightly",
			base:   "reports",
			want:   "ci/nightly/reports",
		},
		{
			name:   "trailing slash trimmed",
			prefix: "ci/",
			base:   "reports",
			want:   "ci/reports",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &s3Uploader{cfg: &config.S3Config{Prefix: tt.prefix}}

			assert.Equal(t, tt.want, u.resolvePrefix(tt.base))
		})
	}
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "application/json", detectContentType("bench_meta_r1.json"))
	assert.Equal(t, "application/octet-stream", detectContentType("Makefile"))
	assert.Equal(t, "application/octet-stream", detectContentType("data.unknownext"))
}
