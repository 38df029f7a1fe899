package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soragoto/kokoro/core"
)

// messageRecord is the persisted row shape. Tool calls and visibility lists
// are stored JSON-encoded; the transcript is append-only so no updated-at
// column exists.
type messageRecord struct {
	ID         uint   `gorm:"primaryKey"`
	SessionID  string `gorm:"index:idx_messages_session"`
	Role       string
	Content    string
	ToolCalls  string
	ToolName   string
	ToolCallID string
	Speaker    string
	Category   int
	VisibleFor string
	CreatedAt  time.Time
}

func (messageRecord) TableName() string { return "messages" }

// GormStore is a Store backed by a gorm database handle.
type GormStore struct {
	db *gorm.DB
}

// OpenSQLite opens (and migrates) a sqlite-backed store at the given DSN.
// Use "file::memory:?cache=shared" for an ephemeral database.
func OpenSQLite(dsn string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return NewGormStore(db)
}

// NewGormStore wraps an existing gorm handle, migrating the message table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&messageRecord{}); err != nil {
		return nil, fmt.Errorf("migrate message table: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Append implements Store.
func (s *GormStore) Append(ctx context.Context, sessionID string, msg core.Message) error {
	rec, err := toRecord(sessionID, msg)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// Messages implements Store. A limit of zero returns the full transcript.
func (s *GormStore) Messages(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	q := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var records []messageRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	// Rows were fetched newest-first to honor the limit; flip back to
	// append order.
	msgs := make([]core.Message, len(records))
	for i, rec := range records {
		msg, err := fromRecord(rec)
		if err != nil {
			return nil, err
		}
		msgs[len(records)-1-i] = msg
	}
	return msgs, nil
}

func toRecord(sessionID string, msg core.Message) (*messageRecord, error) {
	rec := &messageRecord{
		SessionID:  sessionID,
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolName:   msg.ToolName,
		ToolCallID: msg.ToolCallID,
		Speaker:    msg.Speaker,
		Category:   int(msg.Category),
		CreatedAt:  msg.CreatedAt,
	}
	if len(msg.ToolCalls) > 0 {
		b, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return nil, fmt.Errorf("encode tool calls: %w", err)
		}
		rec.ToolCalls = string(b)
	}
	if msg.VisibleFor != nil {
		b, err := json.Marshal(msg.VisibleFor)
		if err != nil {
			return nil, fmt.Errorf("encode visibility: %w", err)
		}
		rec.VisibleFor = string(b)
	}
	return rec, nil
}

func fromRecord(rec messageRecord) (core.Message, error) {
	msg := core.Message{
		Role:       core.Role(rec.Role),
		Content:    rec.Content,
		ToolName:   rec.ToolName,
		ToolCallID: rec.ToolCallID,
		Speaker:    rec.Speaker,
		Category:   core.MessageCategory(rec.Category),
		CreatedAt:  rec.CreatedAt,
	}
	if rec.ToolCalls != "" {
		if err := json.Unmarshal([]byte(rec.ToolCalls), &msg.ToolCalls); err != nil {
			return core.Message{}, fmt.Errorf("decode tool calls: %w", err)
		}
	}
	if rec.VisibleFor != "" {
		if err := json.Unmarshal([]byte(rec.VisibleFor), &msg.VisibleFor); err != nil {
			return core.Message{}, fmt.Errorf("decode visibility: %w", err)
		}
	}
	return msg, nil
}
