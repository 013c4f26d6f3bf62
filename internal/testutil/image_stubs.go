// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
)

// MediaStoreStub is an in-memory media store for tests.
type MediaStoreStub struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	deleted []string

	// SaveErr and DeleteErr, when set, are returned by the matching call.
	SaveErr   error
	DeleteErr error
}

// NewMediaStoreStub creates an empty media store stub.
func NewMediaStoreStub() *MediaStoreStub {
	return &MediaStoreStub{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *MediaStoreStub) Name() string { return "memory" }

// Save records the object and returns a memory:// URL.
func (s *MediaStoreStub) Save(_ context.Context, key, contentType string, body []byte) (string, error) {
	if s.SaveErr != nil {
		return "", s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), body...)
	s.types[key] = contentType
	return "memory://" + key, nil
}

// Delete forgets the object and remembers the key.
func (s *MediaStoreStub) Delete(_ context.Context, key string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// Object returns a stored body and its content type.
func (s *MediaStoreStub) Object(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	return body, s.types[key], ok
}

// Len reports how many objects are stored.
func (s *MediaStoreStub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Deleted returns the keys passed to Delete, in call order.
func (s *MediaStoreStub) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
