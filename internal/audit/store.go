// Package audit persists an operation trail for signing and submission:
// stage outcomes, key ids and payload digests. Raw payloads and key bytes
// never reach a row; digests are one-way SHA-256.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"
	"gorm.io/gorm"

	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/conn"
	"main/pkg/exception"
)

// OrderEvent is one persisted submission stage outcome.
type OrderEvent struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time
	TraceID   uint64 `gorm:"index"`
	OrderID   uint64 `gorm:"index"`
	Stage     string
	Outcome   string
	Reason    string
	LatencyNs int64
}

// SigningEvent is one persisted signing operation.
type SigningEvent struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time
	Op            string
	KeyID         string `gorm:"index"`
	PayloadDigest string
	Outcome       string
}

// Store writes audit rows off the hot path: events go through a bounded
// queue and a single writer goroutine, and are dropped rather than ever
// blocking a submission.
type Store struct {
	db      *gorm.DB
	queue   chan any
	running atomic.Bool
	drops   atomic.Uint64
}

var _ obs.Sink = (*Store)(nil)

// NewStore migrates the audit tables and returns a store.
func NewStore(client *conn.Client, queueCap int) (*Store, error) {
	if client == nil || client.DB() == nil {
		return nil, exception.ErrNilInstance
	}
	if queueCap <= 0 {
		queueCap = 1024
	}
	db := client.DB()
	if err := db.AutoMigrate(&OrderEvent{}, &SigningEvent{}); err != nil {
		return nil, err
	}
	return &Store{db: db, queue: make(chan any, queueCap)}, nil
}

// Emit records terminal stage events: rejected checks and acknowledgements.
func (s *Store) Emit(event schema.StageEvent) {
	if s == nil {
		return
	}
	terminal := event.Stage == schema.StageAcknowledged ||
		(event.Stage == schema.StageChecked && event.Outcome == schema.OutcomeReject)
	if !terminal {
		return
	}
	s.enqueue(&OrderEvent{
		TraceID:   event.TraceID,
		OrderID:   event.OrderID,
		Stage:     event.Stage.String(),
		Outcome:   event.Outcome.String(),
		Reason:    event.Reason.String(),
		LatencyNs: event.LatencyNs,
	})
}

// RecordSigning records one signing operation with the payload digest.
func (s *Store) RecordSigning(op string, keyID string, payload []byte, outcome schema.Outcome) {
	if s == nil {
		return
	}
	digest := sha256.Sum256(payload)
	s.enqueue(&SigningEvent{
		Op:            op,
		KeyID:         keyID,
		PayloadDigest: hex.EncodeToString(digest[:]),
		Outcome:       outcome.String(),
	})
}

// Drops returns how many rows were dropped on queue pressure.
func (s *Store) Drops() uint64 {
	return s.drops.Load()
}

// Run drains the queue until the context is done. Calling it twice is a
// no-op.
func (s *Store) Run(ctx context.Context) {
	if s.running.Swap(true) {
		return
	}
	go func() {
		for {
			select {
			case row := <-s.queue:
				if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
					logs.Warn("audit insert failed, err: " + err.Error())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Store) enqueue(row any) {
	select {
	case s.queue <- row:
	default:
		s.drops.Add(1)
	}
}
