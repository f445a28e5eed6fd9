// Package audit keeps a queryable history of tick decisions. The engine
// appends one row per tick; the ops HTTP surface reads recent rows back for
// operator review.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tickModel struct {
	ID              int64          `gorm:"primaryKey;autoIncrement"`
	TraceID         string         `gorm:"size:64;index"`
	TS              int64          `gorm:"index"`
	TradeAction     string         `gorm:"size:16"`
	TradeBlocked    string         `gorm:"size:32"`
	TradeTxHash     string         `gorm:"size:80"`
	PostedItem      string         `gorm:"size:512"`
	PostFingerprint string         `gorm:"size:64"`
	PlanReasons     string         `gorm:"size:256"`
	Channels        datatypes.JSON `gorm:"type:json"`
	CreatedAt       time.Time
}

func (tickModel) TableName() string { return "tick_audit" }

// Entry is the store-facing view of one tick.
type Entry struct {
	TraceID         string            `json:"trace_id"`
	At              time.Time         `json:"at"`
	TradeAction     string            `json:"trade_action"`
	TradeBlocked    string            `json:"trade_blocked,omitempty"`
	TradeTxHash     string            `json:"trade_tx_hash,omitempty"`
	PostedItem      string            `json:"posted_item,omitempty"`
	PostFingerprint string            `json:"post_fingerprint,omitempty"`
	PlanReasons     []string          `json:"plan_reasons,omitempty"`
	ChannelResults  map[string]string `json:"channel_results,omitempty"`
}

type Store struct {
	db *gorm.DB
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit store path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&tickModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a little parallelism for HTTP reads, low lock contention.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Append(ctx context.Context, e Entry) error {
	channels, err := json.Marshal(e.ChannelResults)
	if err != nil {
		return err
	}
	row := tickModel{
		TraceID:         e.TraceID,
		TS:              e.At.UnixMilli(),
		TradeAction:     e.TradeAction,
		TradeBlocked:    e.TradeBlocked,
		TradeTxHash:     e.TradeTxHash,
		PostedItem:      e.PostedItem,
		PostFingerprint: e.PostFingerprint,
		PlanReasons:     strings.Join(e.PlanReasons, ","),
		Channels:        datatypes.JSON(channels),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// Recent returns the newest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	var rows []tickModel
	if err := s.db.WithContext(ctx).Order("ts DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entry := Entry{
			TraceID:         row.TraceID,
			At:              time.UnixMilli(row.TS).UTC(),
			TradeAction:     row.TradeAction,
			TradeBlocked:    row.TradeBlocked,
			TradeTxHash:     row.TradeTxHash,
			PostedItem:      row.PostedItem,
			PostFingerprint: row.PostFingerprint,
		}
		if row.PlanReasons != "" {
			entry.PlanReasons = strings.Split(row.PlanReasons, ",")
		}
		if len(row.Channels) > 0 {
			_ = json.Unmarshal(row.Channels, &entry.ChannelResults)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
