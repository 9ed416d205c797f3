package service

import (
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/suggestion-box-api/internal/models"
)

// DefaultPresenceWindow is how long a staff member stays online without a heartbeat.
const DefaultPresenceWindow = 35 * time.Second

// PresenceTracker keeps an in-memory registry of staff active on the dashboard.
type PresenceTracker interface {
	MarkOnline(identity models.StaffIdentity)
	Heartbeat(label string, identity models.StaffIdentity)
	MarkOffline(label string)
	ListOnline() []models.PresenceRecord
}

type presenceTracker struct {
	mu      sync.Mutex
	records map[string]models.PresenceRecord
	window  time.Duration
	now     func() time.Time
}

// NewPresenceTracker constructs an empty tracker.
func NewPresenceTracker(window time.Duration) PresenceTracker {
	if window <= 0 {
		window = DefaultPresenceWindow
	}
	return &presenceTracker{
		records: make(map[string]models.PresenceRecord),
		window:  window,
		now:     time.Now,
	}
}

func (p *presenceTracker) MarkOnline(identity models.StaffIdentity) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now().UTC()
	p.records[identity.Label] = models.PresenceRecord{
		Role:       identity.Role,
		Label:      identity.Label,
		Color:      identity.Color,
		LastSeenAt: now,
		LoginAt:    now,
	}
}

// Heartbeat refreshes the record, creating it when the login was never marked.
func (p *presenceTracker) Heartbeat(label string, identity models.StaffIdentity) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now().UTC()
	record, ok := p.records[label]
	if !ok {
		record = models.PresenceRecord{
			Role:    identity.Role,
			Label:   label,
			Color:   identity.Color,
			LoginAt: now,
		}
	}
	record.LastSeenAt = now
	p.records[label] = record
}

func (p *presenceTracker) MarkOffline(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.records, label)
}

// ListOnline evicts stale records and returns the rest ordered by login time.
func (p *presenceTracker) ListOnline() []models.PresenceRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := p.now().UTC().Add(-p.window)
	online := make([]models.PresenceRecord, 0, len(p.records))
	for label, record := range p.records {
		if record.LastSeenAt.Before(cutoff) {
			delete(p.records, label)
			continue
		}
		online = append(online, record)
	}

	sort.Slice(online, func(i, j int) bool {
		if online[i].LoginAt.Equal(online[j].LoginAt) {
			return online[i].Label < online[j].Label
		}
		return online[i].LoginAt.Before(online[j].LoginAt)
	})

	return online
}
