package rugbylive

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/riskibarqy/matchday-sync/external/rapidapi"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

const (
	defaultBaseURL = "https://rugby-live-data.p.rapidapi.com"
	// DateLayout is how rugby-live-data formats kickoff instants.
	DateLayout     = "2006-01-02T15:04:05Z0700"
	DefaultVenue   = "Unknown Venue"
	// IDPrefix keeps rugby-live-data ids apart from API-Football's numeric ids.
	IDPrefix       = "RUGBY-"
	defaultSport   = "Rugby"
	resultsKey     = "results"
)

type Competition struct {
	ID     int
	Season int
	Name   string
	Sport  string
}

func (c Competition) endpoint() string {
	return fmt.Sprintf("/fixtures/%d/%d", c.ID, c.Season)
}

type ClientConfig struct {
	HTTPClient   *http.Client
	BaseURL      string
	APIKey       string
	MaxRetries   int
	Competitions []Competition
	Logger       *logging.Logger
}

type Client struct {
	api          *rapidapi.Client
	baseURL      string
	competitions []Competition
	logger       *logging.Logger
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
	host := ""
	if parsed, err := url.Parse(baseURL); err == nil {
		host = parsed.Host
	}

	return &Client{
		api:          rapidapi.NewClient(cfg.HTTPClient, cfg.APIKey, host, cfg.MaxRetries),
		baseURL:      baseURL,
		competitions: append([]Competition(nil), cfg.Competitions...),
		logger:       logger,
	}
}

func (c *Client) Name() string {
	return fixture.SourceRugby
}

// Fetch pulls each competition's full fixture list; the date window is
// applied later by the normalizer profile.
func (c *Client) Fetch(ctx context.Context) ([]fixture.RawPayload, error) {
	var (
		payloads []fixture.RawPayload
		errs     []error
	)
	for _, competition := range c.competitions {
		endpoint := competition.endpoint()
		body, err := c.api.GetJSON(ctx, c.baseURL+endpoint)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return payloads, ctxErr
			}
			c.logger.WarnContext(ctx, "rugby endpoint fetch failed, skipping",
				"endpoint", endpoint,
				"competition", competition.Name,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", endpoint, err))
			continue
		}

		items := rapidapi.Items(body, resultsKey)
		c.logger.InfoContext(ctx, "rugby endpoint fetched", "endpoint", endpoint, "fixtures", len(items))
		label := competition.Sport
		if label == "" {
			label = defaultSport
		}
		for _, item := range items {
			payloads = append(payloads, fixture.RawPayload{Source: fixture.SourceRugby, Label: label, Doc: item})
		}
	}
	return payloads, stderrors.Join(errs...)
}

// Profile keeps only fixtures from today up to daysAhead days out.
func Profile(daysAhead int) usecase.Profile {
	return usecase.Profile{
		Source:           fixture.SourceRugby,
		IDPath:           usecase.Paths("id"),
		IDPrefix:         IDPrefix,
		DatePath:         usecase.Paths("date"),
		DateFormat:       usecase.DateFormatLayout,
		DateLayout:       DateLayout,
		HomePath:         usecase.Paths("home"),
		AwayPath:         usecase.Paths("away"),
		VenuePath:        usecase.Paths("venue"),
		DefaultVenue:     DefaultVenue,
		DefaultBroadcast: fixture.BroadcastTBC,
		DefaultSport:     defaultSport,
		Window:           &usecase.Window{DaysBehind: 0, DaysAhead: max(daysAhead, 0)},
	}
}
