// Package fpl talks to the fantasy-league REST API: the bootstrap document,
// fixtures and manager entries.
package fpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/netx"
)

const source = "fpl api"

// Team is one club of the bootstrap document.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type bootstrap struct {
	Events *[]Event `json:"events"`
	Teams  []Team   `json:"teams"`
}

// Fixture is one match as returned by the fixtures endpoint.
type Fixture struct {
	ID              int     `json:"id"`
	Event           *int    `json:"event"`
	KickoffTime     *string `json:"kickoff_time"`
	TeamH           int     `json:"team_h"`
	TeamA           int     `json:"team_a"`
	TeamHScore      *int    `json:"team_h_score"`
	TeamAScore      *int    `json:"team_a_score"`
	Finished        bool    `json:"finished"`
	TeamHDifficulty *int    `json:"team_h_difficulty"`
	TeamADifficulty *int    `json:"team_a_difficulty"`
}

// ManagerEntry is the subset of a manager entry the client displays.
// Decoding an entry document into it drops every other field.
type ManagerEntry struct {
	ID                      json.RawMessage `json:"id,omitempty"`
	PlayerFirstName         json.RawMessage `json:"player_first_name,omitempty"`
	PlayerLastName          json.RawMessage `json:"player_last_name,omitempty"`
	Name                    json.RawMessage `json:"name,omitempty"`
	SummaryOverallPoints    json.RawMessage `json:"summary_overall_points,omitempty"`
	SummaryOverallRank      json.RawMessage `json:"summary_overall_rank,omitempty"`
	SummaryEventPoints      json.RawMessage `json:"summary_event_points,omitempty"`
	SummaryEventRank        json.RawMessage `json:"summary_event_rank,omitempty"`
	CurrentEvent            json.RawMessage `json:"current_event,omitempty"`
	Leagues                 json.RawMessage `json:"leagues,omitempty"`
	PlayerRegionName        json.RawMessage `json:"player_region_name,omitempty"`
	PlayerRegionISOCodeLong json.RawMessage `json:"player_region_iso_code_long,omitempty"`
	FavouriteTeam           json.RawMessage `json:"favourite_team,omitempty"`
}

// Client is a thin typed wrapper over the league API.
type Client struct {
	net     *netx.Client
	baseURL string
	timeout time.Duration
}

// NewClient returns a Client for baseURL (e.g. "https://fantasy.premierleague.com/api").
func NewClient(net *netx.Client, baseURL string, timeout time.Duration) *Client {
	return &Client{net: net, baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (c *Client) url(format string, args ...any) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

// Bootstrap returns the raw bootstrap document.
func (c *Client) Bootstrap(ctx context.Context) ([]byte, error) {
	return c.net.GetBytes(ctx, source, c.url("/bootstrap-static/"), c.timeout)
}

func (c *Client) bootstrap(ctx context.Context) (*bootstrap, error) {
	var b bootstrap
	if err := c.net.GetJSON(ctx, source, c.url("/bootstrap-static/"), c.timeout, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CurrentGameweek fetches the bootstrap document and resolves the current
// gameweek from its events. Every failure matches common.ErrUpstreamUnavailable.
func (c *Client) CurrentGameweek(ctx context.Context) (int, error) {
	b, err := c.bootstrap(ctx)
	if err != nil {
		return 0, err
	}
	if b.Events == nil {
		return 0, fmt.Errorf("%w: events array not found", common.ErrUpstreamUnavailable)
	}
	return ResolveGameweek(*b.Events)
}

// Teams returns the id -> name map from the bootstrap document.
func (c *Client) Teams(ctx context.Context) (map[int]string, error) {
	b, err := c.bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	if len(b.Teams) == 0 {
		return nil, &netx.Error{Source: source, Err: errors.New("bootstrap document has no teams")}
	}
	names := make(map[int]string, len(b.Teams))
	for _, t := range b.Teams {
		names[t.ID] = t.Name
	}
	return names, nil
}

// Fixtures returns the fixtures of gameweek gw.
func (c *Client) Fixtures(ctx context.Context, gw int) ([]Fixture, error) {
	var fixtures []Fixture
	if err := c.net.GetJSON(ctx, source, c.url("/fixtures/?event=%d", gw), c.timeout, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// Entry returns the pruned entry of manager id.
func (c *Client) Entry(ctx context.Context, id int64) (*ManagerEntry, error) {
	var e ManagerEntry
	if err := c.net.GetJSON(ctx, source, c.url("/entry/%d/", id), c.timeout, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// EntryHistory returns the history document of manager id verbatim.
func (c *Client) EntryHistory(ctx context.Context, id int64) (json.RawMessage, error) {
	body, err := c.net.GetBytes(ctx, source, c.url("/entry/%d/history/", id), c.timeout)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &netx.Error{Source: source, Err: fmt.Errorf("invalid JSON in history of entry %d", id)}
	}
	return json.RawMessage(body), nil
}
