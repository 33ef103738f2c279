package apifootball

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/external/rapidapi"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

const defaultBaseURL = "https://api-football-v1.p.rapidapi.com/v3"

type League struct {
	ID     int
	Season int
	Sport  string
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	MaxRetries int
	Leagues    []League
	DaysBehind int
	DaysAhead  int
	Location   *time.Location
	Now        func() time.Time
	Logger     *logging.Logger
}

// Client fetches fixtures for each configured league inside a date window.
type Client struct {
	api        *rapidapi.Client
	baseURL    string
	leagues    []League
	daysBehind int
	daysAhead  int
	location   *time.Location
	now        func() time.Time
	logger     *logging.Logger
}

var _ usecase.SourceAdapter = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	host := ""
	if parsed, err := url.Parse(baseURL); err == nil {
		host = parsed.Host
	}

	return &Client{
		api:        rapidapi.NewClient(cfg.HTTPClient, cfg.APIKey, host, cfg.MaxRetries),
		baseURL:    baseURL,
		leagues:    append([]League(nil), cfg.Leagues...),
		daysBehind: max(cfg.DaysBehind, 0),
		daysAhead:  max(cfg.DaysAhead, 0),
		location:   location,
		now:        now,
		logger:     logger,
	}
}

func (c *Client) Name() string {
	return fixture.SourceFootball
}

// Fetch queries every league. A league that fails is logged and skipped; the
// combined error is returned next to whatever was fetched.
func (c *Client) Fetch(ctx context.Context) ([]fixture.RawPayload, error) {
	today := c.now().In(c.location)
	from := today.AddDate(0, 0, -c.daysBehind).Format(fixture.DateLayout)
	to := today.AddDate(0, 0, c.daysAhead).Format(fixture.DateLayout)
	c.logger.InfoContext(ctx, "fetching football fixtures", "from", from, "to", to, "leagues", len(c.leagues))

	var (
		payloads []fixture.RawPayload
		errs     []error
	)
	for _, league := range c.leagues {
		items, err := c.fetchLeague(ctx, league, from, to)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return payloads, ctxErr
			}
			c.logger.WarnContext(ctx, "football league fetch failed, skipping",
				"league_id", league.ID,
				"season", league.Season,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("league %d season %d: %w", league.ID, league.Season, err))
			continue
		}
		c.logger.InfoContext(ctx, "football league fetched",
			"league_id", league.ID,
			"season", league.Season,
			"fixtures", len(items),
		)
		for _, item := range items {
			payloads = append(payloads, fixture.RawPayload{Source: fixture.SourceFootball, Label: league.Sport, Doc: item})
		}
	}
	return payloads, stderrors.Join(errs...)
}

func (c *Client) fetchLeague(ctx context.Context, league League, from, to string) ([][]byte, error) {
	values := url.Values{}
	values.Set("league", strconv.Itoa(league.ID))
	values.Set("season", strconv.Itoa(league.Season))
	values.Set("from", from)
	values.Set("to", to)
	values.Set("timezone", c.location.String())

	body, err := c.api.GetJSON(ctx, c.baseURL+"/fixtures?"+values.Encode())
	if err != nil {
		return nil, err
	}
	return rapidapi.Items(body, "response"), nil
}

// Profile maps API-Football fixture documents. The league label arrives on
// the payload, so no classification rules are needed.
func Profile() usecase.Profile {
	return usecase.Profile{
		Source:           fixture.SourceFootball,
		IDPath:           usecase.Paths("fixture.id"),
		DatePath:         usecase.Paths("fixture.date"),
		DateFormat:       usecase.DateFormatISO8601,
		HomePath:         usecase.Paths("teams.home.name"),
		AwayPath:         usecase.Paths("teams.away.name"),
		VenuePath:        usecase.Paths("fixture.venue.name"),
		DefaultBroadcast: fixture.BroadcastTBC,
	}
}
