// Package hebcal resolves "today" to its Daf Yomi reference using the
// Hebcal calendar API. Responses are parsed into typed structs at the
// boundary; malformed payloads surface as upstream errors, an absent
// dafyomi entry as models.ErrNoDaf.
package hebcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/dafhistory/daf-history-bot/internal/models"
)

const (
	DefaultBaseURL = "https://www.hebcal.com/hebcal"
	DefaultTimeout = 30 * time.Second
)

// masechtaNames maps Hebcal tractate spellings to the AllDaf spellings used
// in video titles. Names absent from the map are identical in both sources.
var masechtaNames = map[string]string{
	"Berakhot":   "Berachos",
	"Shabbat":    "Shabbos",
	"Sukkah":     "Succah",
	"Taanit":     "Taanis",
	"Megillah":   "Megilah",
	"Chagigah":   "Chagiga",
	"Yevamot":    "Yevamos",
	"Ketubot":    "Kesuvos",
	"Gittin":     "Gitin",
	"Kiddushin":  "Kidushin",
	"Bava Kamma": "Bava Kama",
	"Bava Batra": "Bava Basra",
	"Makkot":     "Makos",
	"Shevuot":    "Shevuos",
	"Horayot":    "Horayos",
	"Menachot":   "Menachos",
	"Chullin":    "Chulin",
	"Bekhorot":   "Bechoros",
	"Arakhin":    "Erchin",
	"Keritot":    "Kerisus",
	"Niddah":     "Nidah",
}

// ConvertMasechtaName converts a Hebcal tractate name to the AllDaf form.
func ConvertMasechtaName(name string) string {
	if converted, ok := masechtaNames[name]; ok {
		return converted
	}
	return name
}

// calendarResponse is the subset of the Hebcal payload the resolver reads.
type calendarResponse struct {
	Items []calendarItem `json:"items"`
}

type calendarItem struct {
	Category string `json:"category"`
	Title    string `json:"title"`
}

var titlePattern = regexp.MustCompile(`^(.+)\s+(\d+)$`)

// Client resolves daf references against the Hebcal API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	location   *time.Location
	logger     *zap.Logger
}

// New returns a Client resolving dates in loc against baseURL.
func New(baseURL string, loc *time.Location, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		location:   loc,
		logger:     logger,
	}
}

// ResolveToday returns the Daf Yomi reference for the current date in the
// client's location.
func (c *Client) ResolveToday(ctx context.Context) (models.DafReference, error) {
	return c.ResolveDate(ctx, time.Now().In(c.location))
}

// ResolveDate returns the Daf Yomi reference for the given date.
func (c *Client) ResolveDate(ctx context.Context, date time.Time) (models.DafReference, error) {
	day := date.In(c.location).Format("2006-01-02")

	params := url.Values{}
	params.Set("v", "1")
	params.Set("cfg", "json")
	params.Set("F", "on")
	params.Set("start", day)
	params.Set("end", day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.DafReference{}, fmt.Errorf("hebcal: build request: %v: %w", err, models.ErrUpstream)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.DafReference{}, fmt.Errorf("hebcal: request failed: %v: %w", err, models.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.DafReference{}, fmt.Errorf("hebcal: unexpected status %d: %w", resp.StatusCode, models.ErrUpstream)
	}

	var payload calendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.DafReference{}, fmt.Errorf("hebcal: malformed response: %v: %w", err, models.ErrUpstream)
	}

	for _, item := range payload.Items {
		if item.Category != "dafyomi" {
			continue
		}
		match := titlePattern.FindStringSubmatch(item.Title)
		if match == nil {
			return models.DafReference{}, fmt.Errorf("hebcal: unparseable daf title %q: %w", item.Title, models.ErrUpstream)
		}
		daf, err := strconv.Atoi(match[2])
		if err != nil {
			return models.DafReference{}, fmt.Errorf("hebcal: unparseable daf number %q: %w", match[2], models.ErrUpstream)
		}
		ref := models.DafReference{Masechta: ConvertMasechtaName(match[1]), Daf: daf}
		c.logger.Info("Resolved today's daf",
			zap.String("date", day),
			zap.String("masechta", ref.Masechta),
			zap.Int("daf", ref.Daf))
		return ref, nil
	}

	return models.DafReference{}, fmt.Errorf("hebcal: %s: %w", day, models.ErrNoDaf)
}
