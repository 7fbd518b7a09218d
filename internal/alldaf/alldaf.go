// Package alldaf locates the Jewish History video matching a daf reference
// by scraping the AllDaf series listing and the video page behind it.
package alldaf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/dafhistory/daf-history-bot/internal/models"
)

const (
	DefaultBaseURL    = "https://alldaf.org"
	DefaultSeriesPath = "/series/3940"
	DefaultTimeout    = 30 * time.Second
)

var mp4Pattern = regexp.MustCompile(
	`https://(?:cdn\.jwplayer\.com|content\.jwplatform\.com)/videos/([a-zA-Z0-9]+)\.mp4`)

// Client finds videos on the AllDaf series page.
type Client struct {
	httpClient *http.Client
	baseURL    string
	seriesPath string
	logger     *zap.Logger
}

// New returns a Client scraping baseURL+seriesPath.
func New(baseURL, seriesPath string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if seriesPath == "" {
		seriesPath = DefaultSeriesPath
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		seriesPath: seriesPath,
		logger:     logger,
	}
}

// FindVideo locates the series entry matching ref and extracts its direct
// MP4 URL. A missing MP4 is not an error: VideoURL is left empty and the
// caller falls back to a text message.
func (c *Client) FindVideo(ctx context.Context, ref models.DafReference) (models.VideoInfo, error) {
	doc, err := c.fetchDocument(ctx, c.baseURL+c.seriesPath)
	if err != nil {
		return models.VideoInfo{}, err
	}

	masechtaLower := strings.ToLower(ref.Masechta)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(fmt.Sprintf(`\b%s\s+%d\b`, regexp.QuoteMeta(masechtaLower), ref.Daf)),
		regexp.MustCompile(fmt.Sprintf(`\b%s\s+daf\s+%d\b`, regexp.QuoteMeta(masechtaLower), ref.Daf)),
	}

	var pageURL, title string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, "/p/") {
			return true
		}

		linkText := strings.TrimSpace(sel.Text())
		linkTextLower := strings.ToLower(linkText)
		if !strings.Contains(linkTextLower, masechtaLower) {
			return true
		}

		for _, p := range patterns {
			if p.MatchString(linkTextLower) {
				pageURL = c.baseURL + href
				title = linkText
				return false
			}
		}
		return true
	})

	if pageURL == "" {
		return models.VideoInfo{}, fmt.Errorf("alldaf: %s: %w", ref.Display(), models.ErrVideoNotFound)
	}
	c.logger.Info("Found video", zap.String("title", title), zap.String("page_url", pageURL))

	videoURL, err := c.extractVideoURL(ctx, pageURL)
	if err != nil {
		return models.VideoInfo{}, err
	}

	return models.VideoInfo{
		Title:    title,
		PageURL:  pageURL,
		VideoURL: videoURL,
		Masechta: ref.Masechta,
		Daf:      ref.Daf,
	}, nil
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("alldaf: build request: %v: %w", err, models.ErrUpstream)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alldaf: request failed: %v: %w", err, models.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alldaf: unexpected status %d: %w", resp.StatusCode, models.ErrUpstream)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alldaf: parse listing: %v: %w", err, models.ErrUpstream)
	}
	return doc, nil
}

// extractVideoURL fetches the video page and pulls the JW Player MP4 link
// out of the raw HTML. Returns an empty URL when none is embedded.
func (c *Client) extractVideoURL(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("alldaf: build request: %v: %w", err, models.ErrUpstream)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("alldaf: fetch video page: %v: %w", err, models.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("alldaf: unexpected status %d: %w", resp.StatusCode, models.ErrUpstream)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("alldaf: read video page: %v: %w", err, models.ErrUpstream)
	}

	match := mp4Pattern.FindSubmatch(body)
	if match == nil {
		c.logger.Warn("Could not find direct video URL", zap.String("page_url", pageURL))
		return "", nil
	}

	videoURL := fmt.Sprintf("https://cdn.jwplayer.com/videos/%s.mp4", match[1])
	c.logger.Info("Found video URL", zap.String("video_url", videoURL))
	return videoURL, nil
}
