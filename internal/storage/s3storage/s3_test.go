package s3storage

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/denismitr/imagebin/internal/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	tt := []struct {
		name string
		err  error
		want bool
	}{
		{name: "no such key", err: awserr.New(s3.ErrCodeNoSuchKey, "gone", nil), want: true},
		{name: "no such bucket", err: awserr.New(s3.ErrCodeNoSuchBucket, "gone", nil), want: true},
		{name: "head not found", err: awserr.New("NotFound", "gone", nil), want: true},
		{name: "access denied", err: awserr.New("AccessDenied", "nope", nil), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isNotFound(tc.err))
		})
	}
}

func TestPut_RejectsInvalidKey(t *testing.T) {
	rs := New(Config{Region: "us-east-1", Endpoint: "127.0.0.1:1"})

	_, err := rs.Put(context.Background(), "images", "../etc/passwd", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrInvalidKey))
}

func TestSequentialWriterAt(t *testing.T) {
	var buf bytes.Buffer
	w := sequentialWriterAt{w: &buf}

	_, err := w.WriteAt([]byte("abc"), 0)
	require.NoError(t, err)
	_, err = w.WriteAt([]byte("def"), 3)
	require.NoError(t, err)

	assert.Equal(t, "abcdef", buf.String())
}

func TestCountingReader(t *testing.T) {
	cr := &countingReader{r: strings.NewReader("0123456789")}

	var buf bytes.Buffer
	_, err := buf.ReadFrom(cr)
	require.NoError(t, err)

	assert.Equal(t, int64(10), cr.n)
}
