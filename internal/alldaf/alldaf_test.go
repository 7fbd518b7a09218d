package alldaf

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dafhistory/daf-history-bot/internal/models"
)

const listingHTML = `<html><body>
<a href="/about">About</a>
<a href="/p/100">Berachos 2: In the Beginning</a>
<a href="/p/101">Berachos 21: Morning Prayers</a>
<a href="/p/102">Shabbos Daf 3 - Carrying Out</a>
</body></html>`

const videoPageHTML = `<html><body>
<script>player.setup({file: "https://cdn.jwplayer.com/videos/xYz123AB.mp4"});</script>
</body></html>`

func newTestClient(t *testing.T, listing, videoPage string) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/series/test", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listing)
	})
	mux.HandleFunc("/p/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, videoPage)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return New(server.URL, "/series/test", 5*time.Second, zap.NewNop())
}

func TestFindVideo(t *testing.T) {
	client := newTestClient(t, listingHTML, videoPageHTML)

	video, err := client.FindVideo(context.Background(), models.DafReference{Masechta: "Berachos", Daf: 2})
	require.NoError(t, err)

	assert.Equal(t, "Berachos 2: In the Beginning", video.Title)
	assert.Contains(t, video.PageURL, "/p/100")
	assert.Equal(t, "https://cdn.jwplayer.com/videos/xYz123AB.mp4", video.VideoURL)
	assert.Equal(t, "Berachos", video.Masechta)
	assert.Equal(t, 2, video.Daf)
}

func TestFindVideoExactDafMatch(t *testing.T) {
	// Daf 2 must not match the "Berachos 21" entry.
	client := newTestClient(t, listingHTML, videoPageHTML)

	video, err := client.FindVideo(context.Background(), models.DafReference{Masechta: "Berachos", Daf: 21})
	require.NoError(t, err)
	assert.Contains(t, video.PageURL, "/p/101")
}

func TestFindVideoDafKeywordVariant(t *testing.T) {
	client := newTestClient(t, listingHTML, videoPageHTML)

	video, err := client.FindVideo(context.Background(), models.DafReference{Masechta: "Shabbos", Daf: 3})
	require.NoError(t, err)
	assert.Equal(t, "Shabbos Daf 3 - Carrying Out", video.Title)
}

func TestFindVideoNotFound(t *testing.T) {
	client := newTestClient(t, listingHTML, videoPageHTML)

	_, err := client.FindVideo(context.Background(), models.DafReference{Masechta: "Berachos", Daf: 99})
	assert.ErrorIs(t, err, models.ErrVideoNotFound)
	assert.NotErrorIs(t, err, models.ErrUpstream)
}

func TestFindVideoMissingMP4IsNotAnError(t *testing.T) {
	client := newTestClient(t, listingHTML, `<html><body>no player here</body></html>`)

	video, err := client.FindVideo(context.Background(), models.DafReference{Masechta: "Berachos", Daf: 2})
	require.NoError(t, err)
	assert.Empty(t, video.VideoURL)
	assert.NotEmpty(t, video.PageURL)
}

func TestFindVideoJWPlatformHost(t *testing.T) {
	page := `<script src="https://content.jwplatform.com/videos/abcDEF99.mp4"></script>`
	client := newTestClient(t, listingHTML, page)

	video, err := client.FindVideo(context.Background(), models.DafReference{Masechta: "Berachos", Daf: 2})
	require.NoError(t, err)
	// Normalized to the CDN host regardless of where it was found.
	assert.Equal(t, "https://cdn.jwplayer.com/videos/abcDEF99.mp4", video.VideoURL)
}

func TestFindVideoListingUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	client := New(server.URL, "/series/test", time.Second, zap.NewNop())

	_, err := client.FindVideo(context.Background(), models.DafReference{Masechta: "Berachos", Daf: 2})
	assert.ErrorIs(t, err, models.ErrUpstream)
}
