package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/logging"
	"github.com/dmitrijs2005/fplassistant/internal/server/fpl"
	"github.com/dmitrijs2005/fplassistant/internal/server/models"
	"github.com/dmitrijs2005/fplassistant/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

const (
	SourceLive          = "live"
	SourceCacheAPIError = "cache_api_error"

	staleMessage = "FPL API is currently unavailable. Serving last known data."
)

// ManagerAPI fetches a manager's entry and season history.
type ManagerAPI interface {
	Entry(ctx context.Context, id int64) (*fpl.ManagerEntry, error)
	EntryHistory(ctx context.Context, id int64) (json.RawMessage, error)
}

// ManagerHistory is the response of ManagerService.History.
type ManagerHistory struct {
	Source      string          `json:"source"`
	Data        json.RawMessage `json:"data"`
	LastUpdated *time.Time      `json:"lastUpdated,omitempty"`
	Message     string          `json:"message,omitempty"`
	Error       string          `json:"error,omitempty"`
}

type combinedHistory struct {
	History json.RawMessage   `json:"history"`
	Entry   *fpl.ManagerEntry `json:"entry"`
}

// ManagerService serves the linked manager's history, falling back to the
// copy persisted on the user when the league API is down.
type ManagerService struct {
	repomanager repomanager.RepositoryManager
	api         ManagerAPI
	log         logging.Logger
	now         func() time.Time
}

func NewManagerService(m repomanager.RepositoryManager, api ManagerAPI, log logging.Logger) *ManagerService {
	return &ManagerService{repomanager: m, api: api, log: log, now: time.Now}
}

// History fetches entry and history concurrently. On success the combined
// document is persisted and returned with SourceLive; on failure the last
// persisted document is returned with SourceCacheAPIError, or
// common.ErrNoDataAvailable when there is none.
func (s *ManagerService) History(ctx context.Context, user *models.User) (*ManagerHistory, error) {
	if user.ManagerID == nil {
		return nil, common.ErrNotLinked
	}
	id := *user.ManagerID

	var (
		entry   *fpl.ManagerEntry
		history json.RawMessage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entry, err = s.api.Entry(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.api.EntryHistory(gctx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		s.log.Warn(ctx, "manager history fetch failed", "user_id", user.ID, "manager_id", id, "error", err)
		return s.stale(ctx, user, err)
	}

	data, err := json.Marshal(combinedHistory{History: history, Entry: entry})
	if err != nil {
		return nil, fmt.Errorf("%w: encode manager history: %v", common.ErrInternal, err)
	}

	now := s.now().UTC()
	repo := s.repomanager.Users(s.repomanager.DB())
	if err := repo.UpdateManagerHistory(ctx, user.ID, data, now); err != nil {
		s.log.Error(ctx, "persisting manager history failed", "user_id", user.ID, "error", err)
	} else {
		user.ManagerHistory = data
		user.HistoryUpdatedAt = &now
	}

	return &ManagerHistory{Source: SourceLive, Data: data}, nil
}

func (s *ManagerService) stale(ctx context.Context, user *models.User, cause error) (*ManagerHistory, error) {
	if !hasDocument(user.ManagerHistory) {
		s.log.Error(ctx, "no cached manager history", "user_id", user.ID)
		return nil, fmt.Errorf("%w: %v", common.ErrNoDataAvailable, cause)
	}

	return &ManagerHistory{
		Source:      SourceCacheAPIError,
		Data:        user.ManagerHistory,
		LastUpdated: user.HistoryUpdatedAt,
		Message:     staleMessage,
		Error:       cause.Error(),
	}, nil
}

func hasDocument(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "{}":
		return false
	}
	return true
}
