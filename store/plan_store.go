package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Pheglovog/travel-planner-agent/agent/contract"
)

type Config struct {
	DSN          string `envconfig:"DSN" split_words:"true"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"4"`
}

// PlanRecord is one archived dispatch cycle. Request and results are stored
// as JSONB so the schema survives payload changes.
type PlanRecord struct {
	bun.BaseModel `bun:"table:plan_records"`

	ID          int64           `bun:"id,pk,autoincrement"`
	SessionID   string          `bun:"session_id,notnull"`
	Destination string          `bun:"destination,notnull"`
	Days        int             `bun:"days,notnull"`
	Status      string          `bun:"status,notnull"`
	Request     json.RawMessage `bun:"request,type:jsonb"`
	Results     json.RawMessage `bun:"results,type:jsonb"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// PreferenceStat counts how often a preference tag shows up across archived
// requests, one row per destination and tag.
type PreferenceStat struct {
	bun.BaseModel `bun:"table:preference_stats"`

	Destination string `bun:"destination,pk"`
	Tag         string `bun:"tag,pk"`
	Seen        int64  `bun:"seen,notnull,default:0"`
}

type PlanStore struct {
	db *bun.DB
}

var _ contract.PlanStore = (*PlanStore)(nil)

func New(cfg Config) (*PlanStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("%w: plan store dsn is required", contract.ErrValidation)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)

	return &PlanStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Init creates the tables when missing.
func (s *PlanStore) Init(ctx context.Context) error {
	models := []any{(*PlanRecord)(nil), (*PreferenceStat)(nil)}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("plan store: create table: %w", err)
		}
	}
	return nil
}

func (s *PlanStore) SavePlan(ctx context.Context, req contract.PlanningRequest, resp contract.AggregatedResponse) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("plan store: marshal request: %w", err)
	}
	resultsJSON, err := json.Marshal(resp.Results)
	if err != nil {
		return fmt.Errorf("plan store: marshal results: %w", err)
	}

	rec := &PlanRecord{
		SessionID:   resp.SessionID,
		Destination: req.Destination,
		Days:        req.Days,
		Status:      string(resp.Status),
		Request:     reqJSON,
		Results:     resultsJSON,
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(rec).Exec(ctx); err != nil {
			return fmt.Errorf("plan store: insert record: %w", err)
		}
		for _, tag := range req.Preferences {
			stat := &PreferenceStat{Destination: req.Destination, Tag: tag, Seen: 1}
			_, err := tx.NewInsert().
				Model(stat).
				On("CONFLICT (destination, tag) DO UPDATE").
				Set("seen = preference_stats.seen + 1").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("plan store: bump preference stat: %w", err)
			}
		}
		return nil
	})
}

// RecentPlans returns the latest archived cycles for a destination, newest
// first. An empty destination matches everything.
func (s *PlanStore) RecentPlans(ctx context.Context, destination string, limit int) ([]PlanRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var recs []PlanRecord
	q := s.db.NewSelect().Model(&recs).Order("created_at DESC").Limit(limit)
	if dest := strings.TrimSpace(destination); dest != "" {
		q = q.Where("destination = ?", dest)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("plan store: select recent plans: %w", err)
	}
	return recs, nil
}

// TopPreferences lists the most common preference tags for a destination.
func (s *PlanStore) TopPreferences(ctx context.Context, destination string, limit int) ([]PreferenceStat, error) {
	if limit <= 0 {
		limit = 5
	}
	var stats []PreferenceStat
	err := s.db.NewSelect().
		Model(&stats).
		Where("destination = ?", strings.TrimSpace(destination)).
		Order("seen DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("plan store: select top preferences: %w", err)
	}
	return stats, nil
}

func (s *PlanStore) Close() error {
	return s.db.Close()
}
