package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"fashfolio/internal/config"
	"fashfolio/internal/models"
	"fashfolio/internal/testutil"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "outfits/u1/a.webp", want: "outfits/u1/a.webp"},
		{key: "/outfits/a.webp", want: "outfits/a.webp"},
		{key: "", wantErr: true},
		{key: "../etc/passwd", wantErr: true},
		{key: "outfits/../../x", wantErr: true},
		{key: "outfits//a.webp", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cleanKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("auth0|abc.def", []byte("body"))
	assert.True(t, strings.HasPrefix(key, "outfits/auth0_abc_def/"))
	assert.True(t, strings.HasSuffix(key, ".webp"))
	assert.Equal(t, key, ObjectKey("auth0|abc.def", []byte("body")))
	assert.NotEqual(t, key, ObjectKey("auth0|abc.def", []byte("other")))
	assert.True(t, strings.HasPrefix(ObjectKey("", nil), "outfits/_/"))
}

func TestOwnedBy(t *testing.T) {
	key := ObjectKey("alice", []byte("body"))

	tests := []struct {
		name  string
		key   string
		owner string
		want  bool
	}{
		{name: "own upload", key: key, owner: "alice", want: true},
		{name: "sanitized owner", key: ObjectKey("auth0|abc", nil), owner: "auth0|abc", want: true},
		{name: "other owner", key: key, owner: "mallory", want: false},
		{name: "owner prefix only", key: "outfits/alice/", owner: "alice", want: false},
		{name: "longer owner sharing prefix", key: ObjectKey("alice2", nil), owner: "alice", want: false},
		{name: "nested path", key: "outfits/alice/../bob/x.webp", owner: "alice", want: false},
		{name: "outside outfits", key: "avatars/alice/x.webp", owner: "alice", want: false},
		{name: "empty", key: "", owner: "alice", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OwnedBy(tt.key, tt.owner))
		})
	}
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/media/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "outfits/u1/a.webp", "image/webp", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/outfits/u1/a.webp", url)

	got, err := os.ReadFile(filepath.Join(dir, "outfits", "u1", "a.webp"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	require.NoError(t, store.Delete(ctx, "outfits/u1/a.webp"))
	_, err = os.Stat(filepath.Join(dir, "outfits", "u1", "a.webp"))
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, "outfits/u1/a.webp"))

	_, err = store.Save(ctx, "../escape", "image/webp", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

type fakeS3 struct {
	s3iface.S3API

	mu      sync.Mutex
	puts    map[string][]byte
	types   map[string]string
	deletes []string
	putErr  error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)] = body
	f.types[aws.StringValue(in.Key)] = aws.StringValue(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	client := &fakeS3{puts: map[string][]byte{}, types: map[string]string{}}
	store := NewS3StoreWithClient(client, "eu-west-1", "looks")
	ctx := context.Background()

	url, err := store.Save(ctx, "outfits/u1/a.webp", "image/webp", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://looks.s3.eu-west-1.amazonaws.com/outfits/u1/a.webp", url)
	assert.Equal(t, []byte("data"), client.puts["looks/outfits/u1/a.webp"])
	assert.Equal(t, "image/webp", client.types["outfits/u1/a.webp"])

	require.NoError(t, store.Delete(ctx, "outfits/u1/a.webp"))
	assert.Equal(t, []string{"outfits/u1/a.webp"}, client.deletes)

	client.putErr = errors.New("access denied")
	_, err = store.Save(ctx, "outfits/u1/b.webp", "image/webp", []byte("data"))
	assert.Error(t, err)
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store("us-east-1", "")
	assert.Error(t, err)
}

func TestGCSStore(t *testing.T) {
	var (
		mu      sync.Mutex
		uploads int
		deletes []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		mu.Lock()
		defer mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			uploads++
			_, _ = io.WriteString(w, `{"bucket":"looks","name":"outfits/u1/a.webp","size":"4"}`)
		case http.MethodDelete:
			deletes = append(deletes, r.URL.Path)
			if strings.Contains(r.URL.Path, "missing") {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"error":{"code":404,"message":"No such object"}}`)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()
	t.Setenv("STORAGE_EMULATOR_HOST", srv.URL)

	ctx := context.Background()
	store, err := NewGCSStore(ctx, "looks", "")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	url, err := store.Save(ctx, "outfits/u1/a.webp", "image/webp", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/looks/outfits/u1/a.webp", url)

	require.NoError(t, store.Delete(ctx, "outfits/u1/a.webp"))
	require.NoError(t, store.Delete(ctx, "outfits/u1/missing.webp"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, uploads)
	assert.Len(t, deletes, 2)
}

func TestNewSelectsDriver(t *testing.T) {
	cfg := &config.Config{MediaDriver: config.MediaLocal, MediaLocalDir: t.TempDir(), MediaPublicBaseURL: "/media"}
	store, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "local", store.Name())

	_, err = New(context.Background(), &config.Config{MediaDriver: "ftp"})
	assert.Error(t, err)
}

func TestProcessorUpload(t *testing.T) {
	store := testutil.NewMediaStoreStub()
	p := NewProcessor(store, 10<<20)

	stored, err := p.Upload(context.Background(), "user-1", testutil.TinyPNG(t, 40, 20))
	require.NoError(t, err)
	assert.Equal(t, 40, stored.Width)
	assert.Equal(t, 20, stored.Height)
	assert.Equal(t, "memory://"+stored.Key, stored.URL)
	assert.True(t, strings.HasPrefix(stored.Key, "outfits/user-1/"))

	body, contentType, ok := store.Object(stored.Key)
	require.True(t, ok)
	assert.Equal(t, "image/webp", contentType)
	assert.Equal(t, stored.Bytes, len(body))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 40, cfg.Width)
}

func TestProcessorDownscalesLargeImages(t *testing.T) {
	store := testutil.NewMediaStoreStub()
	p := NewProcessor(store, 50<<20)

	stored, err := p.Upload(context.Background(), "user-1", testutil.TinyPNG(t, 4096, 1024))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, stored.Width)
	assert.Equal(t, 512, stored.Height)
}

func TestProcessorRejectsInvalidUploads(t *testing.T) {
	store := testutil.NewMediaStoreStub()
	p := NewProcessor(store, 1024)

	tests := []struct {
		name    string
		content []byte
		message string
	}{
		{name: "empty", content: nil, message: "No file uploaded"},
		{name: "too large", content: make([]byte, 2048), message: "File too large"},
		{name: "not an image", content: []byte("plain text, definitely not pixels"), message: "Invalid image type"},
		{name: "truncated png", content: testutil.TinyPNG(t, 4, 4)[:20], message: "Invalid image file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Upload(context.Background(), "user-1", tt.content)
			require.Error(t, err)
			assert.True(t, models.IsCode(err, models.CodeValidation))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
	assert.Equal(t, 0, store.Len())
}

func TestProcessorStoreFailure(t *testing.T) {
	store := testutil.NewMediaStoreStub()
	store.SaveErr = errors.New("disk full")
	p := NewProcessor(store, 10<<20)

	_, err := p.Upload(context.Background(), "user-1", testutil.TinyPNG(t, 4, 4))
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeInternal))
}
