// Package fixtures assembles the previous-gameweek results (from the season
// CSV archive) and the current-gameweek fixtures (from the league API), both
// joined with team names.
package fixtures

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/logging"
	"github.com/dmitrijs2005/fplassistant/internal/netx"
	"github.com/dmitrijs2005/fplassistant/internal/server/fpl"
	"golang.org/x/sync/errgroup"
)

const archiveSource = "fixtures archive"

// LeagueAPI is the part of the league API the service needs.
type LeagueAPI interface {
	CurrentGameweek(ctx context.Context) (int, error)
	Fixtures(ctx context.Context, gw int) ([]fpl.Fixture, error)
}

// TeamLookup returns the team id -> name map.
type TeamLookup interface {
	Lookup(ctx context.Context) (map[int]string, error)
}

// PreviousFixture is a finished match of the previous gameweek.
type PreviousFixture struct {
	FixtureID     *int   `json:"fixture_id"`
	KickoffTime   string `json:"kickoff_time"`
	HomeTeamID    *int   `json:"home_team_id"`
	HomeTeamName  string `json:"home_team_name"`
	AwayTeamID    *int   `json:"away_team_id"`
	AwayTeamName  string `json:"away_team_name"`
	HomeTeamScore *int   `json:"home_team_score"`
	AwayTeamScore *int   `json:"away_team_score"`
	Gameweek      *int   `json:"gameweek"`
}

type Previous struct {
	Gameweek int               `json:"gameweek"`
	Season   string            `json:"season"`
	Fixtures []PreviousFixture `json:"fixtures"`
}

// UpcomingFixture is a match of the current gameweek.
type UpcomingFixture struct {
	ID              int     `json:"id"`
	KickoffTime     *string `json:"kickoff_time"`
	Gameweek        *int    `json:"gameweek"`
	HomeTeamID      int     `json:"home_team_id"`
	HomeTeamName    string  `json:"home_team_name"`
	AwayTeamID      int     `json:"away_team_id"`
	AwayTeamName    string  `json:"away_team_name"`
	Finished        bool    `json:"finished"`
	HomeTeamScore   *int    `json:"home_team_score"`
	AwayTeamScore   *int    `json:"away_team_score"`
	TeamHDifficulty *int    `json:"team_h_difficulty"`
	TeamADifficulty *int    `json:"team_a_difficulty"`
}

type Upcoming struct {
	Gameweek int               `json:"gameweek"`
	Fixtures []UpcomingFixture `json:"fixtures"`
}

// Options locate the archive and describe the season.
type Options struct {
	ArchiveURL     string
	Season         string
	LastGameweek   int
	ArchiveTimeout time.Duration
}

type Service struct {
	api   LeagueAPI
	teams TeamLookup
	net   *netx.Client
	opts  Options
	log   logging.Logger
}

func NewService(api LeagueAPI, teams TeamLookup, net *netx.Client, opts Options, log logging.Logger) *Service {
	opts.ArchiveURL = strings.TrimRight(opts.ArchiveURL, "/")
	return &Service{api: api, teams: teams, net: net, opts: opts, log: log}
}

// Previous returns the finished fixtures of the gameweek before the current
// one, read from the configured season archive. Gameweek 1 wraps around to
// the season's last gameweek. Missing archive data is common.ErrNotFound.
func (s *Service) Previous(ctx context.Context) (*Previous, error) {
	current, err := s.api.CurrentGameweek(ctx)
	if err != nil {
		return nil, err
	}
	prev := fpl.PreviousGameweek(current, s.opts.LastGameweek)
	url := fmt.Sprintf("%s/%s/fixtures.csv", s.opts.ArchiveURL, s.opts.Season)

	var (
		data  []byte
		names map[int]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = s.net.GetBytes(gctx, archiveSource, url, s.opts.ArchiveTimeout)
		return err
	})
	g.Go(func() error {
		var err error
		names, err = s.teams.Lookup(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if netx.IsNotFound(err) {
			return nil, fmt.Errorf("%w: archive for season %s", common.ErrNotFound, s.opts.Season)
		}
		return nil, err
	}

	rows, err := ParseArchive(data)
	if err != nil {
		return nil, &netx.Error{Source: archiveSource, Err: err}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no fixture data in archive for season %s", common.ErrNotFound, s.opts.Season)
	}

	out := make([]PreviousFixture, 0)
	for _, r := range rows {
		if r.Event == nil || *r.Event != prev || !r.Finished {
			continue
		}
		out = append(out, PreviousFixture{
			FixtureID:     r.ID,
			KickoffTime:   r.KickoffTime,
			HomeTeamID:    r.TeamH,
			HomeTeamName:  teamName(names, r.TeamH, "Unknown Team"),
			AwayTeamID:    r.TeamA,
			AwayTeamName:  teamName(names, r.TeamA, "Unknown Team"),
			HomeTeamScore: r.TeamHScore,
			AwayTeamScore: r.TeamAScore,
			Gameweek:      r.Event,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no finished fixtures for gameweek %d of season %s", common.ErrNotFound, prev, s.opts.Season)
	}

	s.log.Debug(ctx, "previous gameweek fixtures", "gameweek", prev, "season", s.opts.Season, "count", len(out))
	return &Previous{Gameweek: prev, Season: s.opts.Season, Fixtures: out}, nil
}

// Upcoming returns the fixtures of the current gameweek.
func (s *Service) Upcoming(ctx context.Context) (*Upcoming, error) {
	current, err := s.api.CurrentGameweek(ctx)
	if err != nil {
		return nil, err
	}

	var (
		fixtures []fpl.Fixture
		names    map[int]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fixtures, err = s.api.Fixtures(gctx, current)
		return err
	})
	g.Go(func() error {
		var err error
		names, err = s.teams.Lookup(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]UpcomingFixture, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, UpcomingFixture{
			ID:              f.ID,
			KickoffTime:     f.KickoffTime,
			Gameweek:        f.Event,
			HomeTeamID:      f.TeamH,
			HomeTeamName:    teamName(names, &f.TeamH, "Unknown"),
			AwayTeamID:      f.TeamA,
			AwayTeamName:    teamName(names, &f.TeamA, "Unknown"),
			Finished:        f.Finished,
			HomeTeamScore:   f.TeamHScore,
			AwayTeamScore:   f.TeamAScore,
			TeamHDifficulty: f.TeamHDifficulty,
			TeamADifficulty: f.TeamADifficulty,
		})
	}

	return &Upcoming{Gameweek: current, Fixtures: out}, nil
}

func teamName(names map[int]string, id *int, fallback string) string {
	if id == nil {
		return fallback
	}
	if n, ok := names[*id]; ok && n != "" {
		return n
	}
	return fallback
}
