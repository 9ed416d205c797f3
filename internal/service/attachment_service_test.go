package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func TestAttachmentServiceStoresDataURL(t *testing.T) {
	uploader := &stubUploader{url: "https://res.cloudinary.com/demo/image/upload/suggestion.png"}
	svc := NewAttachmentService(uploader, 1, time.Second, testLogger())

	result := svc.Store(context.Background(), "data:image/png;base64,"+tinyPNG)

	require.True(t, result.Success)
	require.Equal(t, uploader.url, result.URL)
	require.Empty(t, result.Error)
	require.True(t, strings.HasSuffix(uploader.name, ".png"))

	expected, err := base64.StdEncoding.DecodeString(tinyPNG)
	require.NoError(t, err)
	require.Equal(t, expected, uploader.received)
}

func TestAttachmentServiceAcceptsBareBase64(t *testing.T) {
	uploader := &stubUploader{url: "https://example.com/a.png"}
	svc := NewAttachmentService(uploader, 1, time.Second, testLogger())

	result := svc.Store(context.Background(), tinyPNG)
	require.True(t, result.Success)
}

func TestAttachmentServiceFailures(t *testing.T) {
	oversized := base64.StdEncoding.EncodeToString(make([]byte, 2*1024*1024))
	text := base64.StdEncoding.EncodeToString([]byte("just some plain text, not an image"))

	cases := []struct {
		name     string
		uploader ImageUploader
		payload  string
	}{
		{name: "unconfigured", uploader: nil, payload: tinyPNG},
		{name: "too large", uploader: &stubUploader{url: "x"}, payload: oversized},
		{name: "not an image", uploader: &stubUploader{url: "x"}, payload: "data:text/plain;base64," + text},
		{name: "not base64", uploader: &stubUploader{url: "x"}, payload: "%%%not-base64%%%"},
		{name: "data url without base64", uploader: &stubUploader{url: "x"}, payload: "data:image/png," + tinyPNG},
		{name: "upload error", uploader: &stubUploader{err: errors.New("503 from host")}, payload: tinyPNG},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewAttachmentService(tc.uploader, 1, time.Second, testLogger())

			result := svc.Store(context.Background(), tc.payload)

			require.False(t, result.Success)
			require.Empty(t, result.URL)
			require.NotEmpty(t, result.Error)
		})
	}
}
