package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	key         string
	contentType string
	data        []byte
}

func (m *memStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	m.key, m.contentType, m.data = key, contentType, data
	return "https://cdn.test/" + key, nil
}

type fakeRekognition struct {
	labels []types.ModerationLabel
}

func (f *fakeRekognition) DetectModerationLabels(context.Context, *rekognition.DetectModerationLabelsInput, ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error) {
	return &rekognition.DetectModerationLabelsOutput{ModerationLabels: f.labels}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadImageDownscalesLargeImages(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, nil, zap.NewNop())

	url, err := svc.UploadImage(context.Background(), "chat", "flood photo.png", pngBytes(t, 2400, 1200))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://cdn.test/chat/"))
	assert.True(t, strings.HasSuffix(store.key, "-flood_photo.png"))
	assert.Equal(t, "image/png", store.contentType)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(store.data))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestUploadImageKeepsSmallImages(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, nil, zap.NewNop())
	data := pngBytes(t, 40, 30)

	_, err := svc.UploadImage(context.Background(), "chat", "a.png", data)
	require.NoError(t, err)
	assert.Equal(t, data, store.data)
}

func TestUploadImageRejectsNonImages(t *testing.T) {
	svc := NewService(&memStore{}, nil, zap.NewNop())

	_, err := svc.UploadImage(context.Background(), "chat", "notes.txt", []byte("just some text"))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)

	_, err = svc.UploadImage(context.Background(), "chat", "empty.png", nil)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestUploadImageRejectsOversized(t *testing.T) {
	svc := NewService(&memStore{}, nil, zap.NewNop())
	big := append(pngBytes(t, 10, 10), make([]byte, MaxUploadSize)...)

	_, err := svc.UploadImage(context.Background(), "chat", "big.png", big)
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

func TestModerationBlocksExplicitContent(t *testing.T) {
	mod := &RekognitionModerator{
		client: &fakeRekognition{labels: []types.ModerationLabel{
			{Name: aws.String("Graphic Violence"), ParentName: aws.String("Violence")},
			{Name: aws.String("Nudity"), ParentName: aws.String("Explicit Nudity")},
		}},
		minConfidence: 80,
	}
	store := &memStore{}
	svc := NewService(store, mod, zap.NewNop())

	_, err := svc.UploadImage(context.Background(), "chat", "x.png", pngBytes(t, 10, 10))
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
	assert.Nil(t, store.data)
}

func TestModerationAllowsDisasterImagery(t *testing.T) {
	mod := &RekognitionModerator{
		client: &fakeRekognition{labels: []types.ModerationLabel{
			{Name: aws.String("Graphic Violence"), ParentName: aws.String("Violence")},
		}},
	}
	assert.NoError(t, mod.Check(context.Background(), []byte("img")))
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	key := ObjectKey("/chat/", "my photo (1).jpg", now)
	assert.True(t, strings.HasPrefix(key, "chat/20250701-"))
	assert.True(t, strings.HasSuffix(key, "-my_photo_1_.jpg"))

	assert.True(t, strings.HasSuffix(ObjectKey("", "", now), "-image"))
	assert.True(t, strings.HasPrefix(ObjectKey("", "", now), "uploads/"))
}

func TestSupabaseStorePut(t *testing.T) {
	var gotPath, gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "service-key", "images")
	url, err := store.Put(context.Background(), "chat/a.png", "image/png", []byte("png"))
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/images/chat/a.png", gotPath)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, []byte("png"), gotBody)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/images/chat/a.png", url)
}

func TestSupabaseStoreFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	_, err := NewSupabaseStore(srv.URL, "k", "images").Put(context.Background(), "a.png", "image/png", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
