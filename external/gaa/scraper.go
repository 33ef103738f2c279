package gaa

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

const (
	DefaultFixturesURL = "https://www.gaa.ie/fixtures-results"
	maxPageSize        = 16 << 20
	userAgent          = "matchday-sync/1.0 (+fixtures)"
)

// Item is one scraped match in the shape the JSON file loader also reads.
type Item struct {
	FixtureID string `json:"FixtureID"`
	Date      string `json:"Date"`
	Time      string `json:"Time"`
	GroupName string `json:"GroupName"`
	TeamA     string `json:"TeamA"`
	TeamB     string `json:"TeamB"`
	Venue     string `json:"Venue"`
	TV        string `json:"TV"`
}

type ScraperConfig struct {
	HTTPClient  *http.Client
	FixturesURL string
	MaxRetries  int
	Logger      *logging.Logger
}

// Scraper reads fixtures straight off the gaa.ie fixtures page.
type Scraper struct {
	httpClient *http.Client
	pageURL    string
	logger     *logging.Logger
}

var _ usecase.SourceAdapter = (*Scraper)(nil)

func NewScraper(cfg ScraperConfig) *Scraper {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewRetryingHTTPClient(resilience.HTTPClientConfig{MaxRetries: cfg.MaxRetries, Logger: logger})
	}
	pageURL := strings.TrimSpace(cfg.FixturesURL)
	if pageURL == "" {
		pageURL = DefaultFixturesURL
	}
	return &Scraper{httpClient: httpClient, pageURL: pageURL, logger: logger}
}

func (s *Scraper) Name() string {
	return fixture.SourceGAA
}

func (s *Scraper) Fetch(ctx context.Context) ([]fixture.RawPayload, error) {
	page, err := s.download(ctx)
	if err != nil {
		return nil, err
	}

	items, err := ParsePage(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "gaa fixtures page scraped", "url", s.pageURL, "matches", len(items))
	return encodeItems(items)
}

func (s *Scraper) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build gaa request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, crerr.Wrap(err, "fetch gaa fixtures page")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, crerr.Wrap(err, "read gaa fixtures page")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &resilience.RemoteCallError{
			Method:     req.Method,
			URL:        s.pageURL,
			StatusCode: resp.StatusCode,
			Body:       resilience.AbbreviateBody(body),
			Attempts:   1,
		}
	}
	return body, nil
}

// ParsePage extracts match items grouped under competition headings. Items
// without a match id are skipped.
func ParsePage(r io.Reader) ([]Item, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse gaa fixtures page: %w", err)
	}

	var items []Item
	collect := func(group string, match *goquery.Selection) {
		id := strings.TrimSpace(match.AttrOr("data-match-id", ""))
		if id == "" {
			return
		}
		items = append(items, Item{
			FixtureID: id,
			Date:      strings.TrimSpace(match.AttrOr("data-match-date", "")),
			Time:      firstText(match, ".gar-match-item__upcoming"),
			GroupName: group,
			TeamA:     firstText(match, ".gar-match-item__team.-home .gar-match-item__team-name"),
			TeamB:     firstText(match, ".gar-match-item__team.-away .gar-match-item__team-name"),
			Venue:     firstText(match, ".gar-match-item__venue"),
			TV:        strings.TrimSpace(match.Find(".gar-match-item__tv-provider img").First().AttrOr("alt", "")),
		})
	}

	groups := doc.Find("div.gar-matches-list__group")
	if groups.Length() == 0 {
		// Older page layout without group wrappers.
		doc.Find("div.gar-match-item").Each(func(_ int, match *goquery.Selection) {
			collect("", match)
		})
		return items, nil
	}
	groups.Each(func(_ int, group *goquery.Selection) {
		name := firstText(group, "h3.gar-matches-list__group-name")
		group.Find("div.gar-match-item").Each(func(_ int, match *goquery.Selection) {
			collect(name, match)
		})
	})
	return items, nil
}

func firstText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(sel.Find(selector).First().Text())
}

func encodeItems(items []Item) ([]fixture.RawPayload, error) {
	payloads := make([]fixture.RawPayload, 0, len(items))
	for _, item := range items {
		doc, err := sonic.Marshal(item)
		if err != nil {
			return payloads, fmt.Errorf("encode gaa item %s: %w", item.FixtureID, err)
		}
		payloads = append(payloads, fixture.RawPayload{Source: fixture.SourceGAA, Doc: doc})
	}
	return payloads, nil
}

// Profile reads both scraped items and the spider's alternate field names.
// The group heading decides the sport label.
func Profile(rules []usecase.SportRule, defaultSport string) usecase.Profile {
	return usecase.Profile{
		Source:        fixture.SourceGAA,
		IDPath:        usecase.Paths("FixtureID", "match_id"),
		IDPrefix:      "GAA-",
		DatePath:      usecase.Paths("Date", "match_date"),
		DateFormat:    usecase.DateFormatISO8601,
		TimePath:      usecase.Paths("Time", "match_time"),
		HomePath:      usecase.Paths("TeamA", "team_home"),
		AwayPath:      usecase.Paths("TeamB", "team_away"),
		VenuePath:     usecase.Paths("Venue", "venue"),
		VenuePrefixes: []string{"Venue:"},
		BroadcastPath: usecase.Paths("TV", "broadcasting"),
		GroupPath:     usecase.Paths("GroupName", "Sport"),
		Rules:         append([]usecase.SportRule(nil), rules...),
		DefaultSport:  defaultSport,
	}
}
