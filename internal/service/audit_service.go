package service

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mollyslab/slabgate/internal/model"
)

// AuditService fans audit entries out to a daily jsonl file, an
// in-memory ring buffer, and (when wired) a durable repo. Logging
// never blocks the request path; a full buffer drops entries.
type AuditService struct {
	logChan chan *model.AuditLog
	logFile *os.File
	buffer  *auditBuffer
	repo    AuditRepo
}

type AuditRepo interface {
	Insert(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, actorID string, limit int, from, to *time.Time) ([]*model.AuditLog, error)
}

func NewAuditService(logDir string, repo AuditRepo) (*AuditService, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}

	filename := filepath.Join(logDir, "audit-"+time.Now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	svc := &AuditService{
		logChan: make(chan *model.AuditLog, 1000),
		logFile: f,
		buffer:  newAuditBuffer(1000),
		repo:    repo,
	}

	go svc.processLogs()

	return svc, nil
}

func (s *AuditService) Log(entry *model.AuditLog) {
	if s.buffer != nil {
		s.buffer.Add(entry)
	}
	select {
	case s.logChan <- entry:
	default:
		log.Println("audit log buffer full, dropping entry")
	}
}

func (s *AuditService) List(ctx context.Context, actorID string, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, actorID, limit, from, to)
		if err == nil {
			return records, nil
		}
	}
	if s.buffer == nil {
		return nil, nil
	}
	return s.buffer.List(actorID, limit), nil
}

func (s *AuditService) processLogs() {
	encoder := json.NewEncoder(s.logFile)
	for entry := range s.logChan {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), entry); err != nil {
				log.Printf("failed to write audit log to repo: %v", err)
			}
		}
		if err := encoder.Encode(entry); err != nil {
			log.Printf("failed to write audit log: %v", err)
		}
	}
}

func (s *AuditService) Close() {
	close(s.logChan)
	s.logFile.Close()
}

type auditBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.AuditLog
	nextIndex int
}

func newAuditBuffer(maxSize int) *auditBuffer {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &auditBuffer{
		maxSize: maxSize,
		records: make([]*model.AuditLog, 0, maxSize),
	}
}

func (b *auditBuffer) Add(entry *model.AuditLog) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, entry)
		return
	}
	b.records[b.nextIndex] = entry
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

func (b *auditBuffer) List(actorID string, limit int) []*model.AuditLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > len(b.records) {
		limit = len(b.records)
	}
	out := make([]*model.AuditLog, 0, limit)
	// Newest first: walk backwards from the slot before nextIndex.
	for i := 0; i < len(b.records) && len(out) < limit; i++ {
		idx := (b.nextIndex - 1 - i + len(b.records)*2) % len(b.records)
		entry := b.records[idx]
		if entry == nil {
			continue
		}
		if actorID != "" && entry.ActorID != actorID {
			continue
		}
		out = append(out, entry)
	}
	return out
}
