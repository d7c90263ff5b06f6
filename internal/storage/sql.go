package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/config"
)

type slotRecord struct {
	SlotKey   string    `gorm:"column:slot_key;primaryKey;size:255"`
	Value     []byte    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (slotRecord) TableName() string { return "cart_slots" }

// SQL stores slots as rows of the cart_slots table.
type SQL struct {
	conn *gorm.DB
	now  func() time.Time
}

// OpenSQL opens the configured driver and migrates the slot table.
func OpenSQL(cfg config.SQLConfig) (*SQL, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("%w: sql dsn is required", ErrNotConfigured)
	}
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true})
	default:
		return nil, fmt.Errorf("%w: unsupported sql driver %q", ErrNotConfigured, cfg.Driver)
	}
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent}),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}
	return NewSQL(conn)
}

// NewSQL wraps an open gorm connection and migrates the slot table.
func NewSQL(conn *gorm.DB) (*SQL, error) {
	if conn == nil {
		return nil, fmt.Errorf("%w: nil gorm connection", ErrNotConfigured)
	}
	if err := conn.AutoMigrate(&slotRecord{}); err != nil {
		return nil, fmt.Errorf("migrate cart_slots: %w", err)
	}
	return &SQL{conn: conn, now: time.Now}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var rec slotRecord
	err := s.conn.WithContext(ctx).Where("slot_key = ?", key).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, fmt.Errorf("storage: select %s: %w", key, err)
	}
	return rec.Value, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	rec := slotRecord{SlotKey: key, Value: value, UpdatedAt: s.now().UTC()}
	err := s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slot_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("storage: upsert %s: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if err := s.conn.WithContext(ctx).Where("slot_key = ?", key).Delete(&slotRecord{}).Error; err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQL) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
