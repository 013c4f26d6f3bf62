package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"fashfolio/internal/media"
	"fashfolio/internal/models"
	"fashfolio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedFollowingScenario(t *testing.T) {
	env := newTestEnv(t)

	// bob and carol exist before anyone follows them.
	env.do(http.MethodGet, "/api/users/me", "bob", nil)
	env.do(http.MethodGet, "/api/users/me", "carol", nil)

	p1 := env.createOutfit("bob", map[string]interface{}{"season": "Summer"})
	env.createOutfit("carol", map[string]interface{}{"season": "Winter"})

	status, raw := env.do(http.MethodPost, "/api/users/bob/follow", "alice", nil)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = env.do(http.MethodGet, "/api/feed?mode=following", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	items := decode[[]models.FeedItem](t, raw)
	require.Len(t, items, 1)
	assert.Equal(t, p1.ID, items[0].ID)
	assert.Equal(t, "bob", items[0].Author.Username)

	status, raw = env.do(http.MethodGet, "/api/feed?mode=following", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]models.FeedItem](t, raw))

	status, raw = env.do(http.MethodGet, "/api/feed", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.FeedItem](t, raw), 2)

	status, _ = env.do(http.MethodGet, "/api/feed?mode=trending", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestOutfitOwnership(t *testing.T) {
	env := newTestEnv(t)
	outfit := env.createOutfit("alice", map[string]interface{}{"isPublic": false, "description": "linen"})

	tests := []struct {
		name   string
		method string
		sub    string
		body   interface{}
		want   int
	}{
		{"guest cannot read private", http.MethodGet, "", nil, http.StatusNotFound},
		{"stranger cannot read private", http.MethodGet, "bob", nil, http.StatusNotFound},
		{"owner reads private", http.MethodGet, "alice", nil, http.StatusOK},
		{"guest cannot edit", http.MethodPatch, "", map[string]interface{}{"mood": "Calm"}, http.StatusUnauthorized},
		{"stranger cannot edit", http.MethodPatch, "bob", map[string]interface{}{"mood": "Calm"}, http.StatusNotFound},
		{"owner edits", http.MethodPatch, "alice", map[string]interface{}{"mood": "Calm", "isPublic": true}, http.StatusOK},
		{"stranger cannot delete public", http.MethodDelete, "bob", nil, http.StatusForbidden},
		{"owner deletes", http.MethodDelete, "alice", nil, http.StatusOK},
		{"gone after delete", http.MethodGet, "alice", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(tt.method, "/api/outfits/"+outfit.ID, tt.sub, tt.body)
			assert.Equal(t, tt.want, status, string(raw))
		})
	}
}

func TestCreateOutfitValidation(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodPost, "/api/outfits", "alice", map[string]interface{}{"season": "Fall"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(http.MethodPost, "/api/outfits", "alice", map[string]interface{}{
		"imageUrl": "https://img.example.com/a.webp",
		"wearDate": "last tuesday",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	outfit := env.createOutfit("alice", map[string]interface{}{"wearDate": "2024-05-01"})
	require.NotNil(t, outfit.WearDate)
	assert.Equal(t, 2024, outfit.WearDate.Year())
	assert.True(t, outfit.IsPublic)
}

func TestToggleLikeAndComments(t *testing.T) {
	env := newTestEnv(t)
	outfit := env.createOutfit("alice", map[string]interface{}{})

	status, raw := env.do(http.MethodPost, "/api/outfits/"+outfit.ID+"/like", "bob", nil)
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.Equal(t, models.LikeResult{Liked: true, LikesCount: 1}, decode[models.LikeResult](t, raw))

	_, raw = env.do(http.MethodPost, "/api/outfits/"+outfit.ID+"/like", "bob", nil)
	assert.Equal(t, models.LikeResult{Liked: false, LikesCount: 0}, decode[models.LikeResult](t, raw))

	status, raw = env.do(http.MethodPost, "/api/outfits/"+outfit.ID+"/comments", "bob",
		map[string]string{"content": "  love it  "})
	require.Equal(t, http.StatusCreated, status, string(raw))
	comment := decode[models.Comment](t, raw)
	assert.Equal(t, "love it", comment.Content)

	status, _ = env.do(http.MethodPost, "/api/outfits/"+outfit.ID+"/comments", "bob",
		map[string]string{"content": "   "})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = env.do(http.MethodGet, "/api/outfits/"+outfit.ID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.Comment](t, raw), 1)

	_, raw = env.do(http.MethodGet, "/api/outfits/"+outfit.ID, "", nil)
	assert.Equal(t, 1, decode[models.FeedItem](t, raw).CommentsCount)

	status, _ = env.do(http.MethodPost, "/api/outfits/missing/like", "bob", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListOutfitsScopes(t *testing.T) {
	env := newTestEnv(t)
	env.createOutfit("alice", map[string]interface{}{"season": "Summer"})
	env.createOutfit("alice", map[string]interface{}{"season": "Winter", "isPublic": false})
	env.createOutfit("bob", map[string]interface{}{"season": "Summer", "description": "rain jacket"})

	status, raw := env.do(http.MethodGet, "/api/outfits?scope=personal", "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]models.FeedItem](t, raw), 2)

	_, raw = env.do(http.MethodGet, "/api/outfits?scope=personal", "", nil)
	assert.Empty(t, decode[[]models.FeedItem](t, raw))

	_, raw = env.do(http.MethodGet, "/api/outfits?season=Summer", "", nil)
	assert.Len(t, decode[[]models.FeedItem](t, raw), 2)

	_, raw = env.do(http.MethodGet, "/api/outfits?q=RAIN", "", nil)
	assert.Len(t, decode[[]models.FeedItem](t, raw), 1)

	_, raw = env.do(http.MethodGet, "/api/users/alice/outfits", "", nil)
	assert.Len(t, decode[[]models.FeedItem](t, raw), 1)

	_, raw = env.do(http.MethodGet, "/api/outfits?page=2", "", nil)
	assert.Empty(t, decode[[]models.FeedItem](t, raw))
}

// upload posts a w x h PNG as sub and returns the stored image.
func (e *testEnv) upload(sub string, w, h int) media.Stored {
	e.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "look.png")
	require.NoError(e.t, err)
	_, err = part.Write(testutil.TinyPNG(e.t, w, h))
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/outfits/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokenFor(e.t, sub, sub))
	status, raw := e.send(req)
	require.Equal(e.t, http.StatusCreated, status, string(raw))
	return decode[media.Stored](e.t, raw)
}

func TestUploadOutfitImage(t *testing.T) {
	env := newTestEnv(t)

	stored := env.upload("alice", 64, 48)
	assert.Equal(t, 64, stored.Width)
	assert.Equal(t, 48, stored.Height)
	assert.Equal(t, "memory://"+stored.Key, stored.URL)
	assert.Equal(t, 1, env.media.Len())

	// Deleting the outfit removes its image.
	outfit := env.createOutfit("alice", map[string]interface{}{"imageUrl": stored.URL, "publicId": stored.Key})
	status, _ := env.do(http.MethodDelete, "/api/outfits/"+outfit.ID, "alice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{stored.Key}, env.media.Deleted())
}

func TestOutfitMediaCannotBeClaimedByAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	stored := env.upload("alice", 32, 32)
	env.createOutfit("alice", map[string]interface{}{"imageUrl": stored.URL, "publicId": stored.Key})

	status, raw := env.do(http.MethodPost, "/api/outfits", "mallory",
		map[string]interface{}{"imageUrl": stored.URL, "publicId": stored.Key})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "publicId")

	// mallory can still post the public URL, but deleting it leaves alice's image alone.
	outfit := env.createOutfit("mallory", map[string]interface{}{"imageUrl": stored.URL})
	status, _ = env.do(http.MethodDelete, "/api/outfits/"+outfit.ID, "mallory", nil)
	require.Equal(t, http.StatusOK, status)

	_, _, ok := env.media.Object(stored.Key)
	assert.True(t, ok)
	assert.Empty(t, env.media.Deleted())
}

func TestSharedOutfitMediaSurvivesUntilLastReference(t *testing.T) {
	env := newTestEnv(t)
	first := env.upload("alice", 32, 32)
	second := env.upload("alice", 32, 32)
	require.Equal(t, first.Key, second.Key)

	a := env.createOutfit("alice", map[string]interface{}{"imageUrl": first.URL, "publicId": first.Key})
	b := env.createOutfit("alice", map[string]interface{}{"imageUrl": second.URL, "publicId": second.Key})

	status, _ := env.do(http.MethodDelete, "/api/outfits/"+a.ID, "alice", nil)
	require.Equal(t, http.StatusOK, status)
	_, _, ok := env.media.Object(first.Key)
	assert.True(t, ok, "image still shown by the second outfit")

	status, _ = env.do(http.MethodDelete, "/api/outfits/"+b.ID, "alice", nil)
	require.Equal(t, http.StatusOK, status)
	_, _, ok = env.media.Object(first.Key)
	assert.False(t, ok)
	assert.Equal(t, []string{first.Key}, env.media.Deleted())
}

func TestUploadOutfitImageWithoutFile(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("note", "no file"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/outfits/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "alice", "alice"))
	status, raw := env.send(req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "No file uploaded")
}

func TestAnalyzeOutfitWithoutAnalyzer(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(http.MethodPost, "/api/outfits/analyze", "alice",
		map[string]string{"imageUrl": "https://img.example.com/a.webp"})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"analysis":null}`, string(raw))

	status, _ = env.do(http.MethodPost, "/api/outfits/analyze", "alice", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}
