package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/seenimoa/nsefolio/internal/config"
)

// Backend is the key/value persistence the holdings list is written to.
type Backend interface {
	// Get returns the value stored under key. found is false when the key
	// has never been written.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open creates the backend selected by cfg.Driver.
func Open(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryBackend(), nil
	case "", "sqlite":
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" && cfg.DSN != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage directory: %w", err)
			}
		}
		return openGorm(sqlite.Open(cfg.DSN))
	case "postgres":
		return openGorm(postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		}))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// --- GORM ---

// kvRecord is one row of the key/value table.
type kvRecord struct {
	Key       string `gorm:"column:kv_key;primaryKey;size:128"`
	Value     string `gorm:"column:kv_value;type:text;not null"`
	UpdatedAt time.Time
}

func (kvRecord) TableName() string { return "nsefolio_kv" }

// GormBackend stores values in a single key/value table.
type GormBackend struct {
	db *gorm.DB
}

func openGorm(dialector gorm.Dialector) (*GormBackend, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewGormBackend(db)
}

// NewGormBackend wraps an open database, creating the table if needed.
func NewGormBackend(db *gorm.DB) (*GormBackend, error) {
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("migrate key/value table: %w", err)
	}
	return &GormBackend{db: db}, nil
}

func (g *GormBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var rec kvRecord
	err := g.db.WithContext(ctx).Where("kv_key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return []byte(rec.Value), true, nil
}

func (g *GormBackend) Put(ctx context.Context, key string, value []byte) error {
	rec := kvRecord{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kv_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"kv_value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (g *GormBackend) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- Memory ---

// MemoryBackend keeps values in process memory. Used for tests and
// ephemeral runs.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryBackend) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
