package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

type draftRow struct {
	SessionID string `gorm:"primaryKey"`
	Payload   string
	UpdatedAt time.Time
}

func (draftRow) TableName() string { return "drafts" }

// SQLiteStore keeps drafts in a SQLite file so they survive process restarts.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store %s: %w", path, err)
	}
	if err := db.AutoMigrate(&draftRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate draft store: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, sessionID uuid.UUID) (Draft, bool, error) {
	var row draftRow
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID.String()).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Draft{}, false, nil
	}
	if err != nil {
		return Draft{}, false, fmt.Errorf("failed to read draft %s: %w", sessionID, err)
	}
	var d Draft
	if err := json.Unmarshal([]byte(row.Payload), &d); err != nil {
		return Draft{}, false, fmt.Errorf("failed to decode draft %s: %w", sessionID, err)
	}
	return d, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, d Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", d.SessionID, err)
	}
	row := draftRow{
		SessionID: d.SessionID.String(),
		Payload:   string(payload),
		UpdatedAt: d.UpdatedAt,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to write draft %s: %w", d.SessionID, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	err := s.db.WithContext(ctx).Where("session_id = ?", sessionID.String()).Delete(&draftRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", sessionID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
