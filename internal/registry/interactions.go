package registry

import (
	"sync"
	"time"
)

// DefaultTTL bounds how long an unconsumed interaction stays routable.
const DefaultTTL = 15 * time.Minute

// Entry holds the Discord interaction metadata needed to deliver an ephemeral
// follow-up once verification finishes.
type Entry struct {
	InteractionID    string
	InteractionToken string
	ChannelID        string
	UserID           string
	GuildID          string
	CreatedAt        time.Time
}

// InteractionRegistry — process-local map: session token -> interaction.
// Потеря при рестарте допустима: бот откатится на DM. Каждый доступ сначала
// выметает протухшие записи, чтобы память была ограничена даже без consume.
type InteractionRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry
}

func NewInteractionRegistry(ttl time.Duration) *InteractionRegistry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InteractionRegistry{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
}

func (r *InteractionRegistry) Register(token string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	r.entries[token] = e
}

// Consume возвращает и удаляет запись. Одноразовая операция: второй вызов для
// того же токена всегда возвращает false, так что путь доставки (ephemeral
// follow-up либо DM) выбирается ровно один раз.
func (r *InteractionRegistry) Consume(token string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()
	e, ok := r.entries[token]
	if ok {
		delete(r.entries, token)
	}
	return e, ok
}

// Len reports the number of live entries, sweeping first.
func (r *InteractionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()
	return len(r.entries)
}

// sweep: caller must hold r.mu.
func (r *InteractionRegistry) sweep() {
	cutoff := r.now().Add(-r.ttl)
	for token, e := range r.entries {
		if e.CreatedAt.Before(cutoff) {
			delete(r.entries, token)
		}
	}
}
