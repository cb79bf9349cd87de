package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/velorashop/auth-service/internal/queue"
)

// Entry is one persisted audit row.
type Entry struct {
	EventID    string
	ActorID    uint64
	Action     string
	Resource   string
	ResourceID string
	OldValue   []byte
	NewValue   []byte
	Severity   Severity
	IPAddress  string
	UserAgent  string
	OccurredAt time.Time
}

// Store is the durable, append-only record the sink writes into.
type Store interface {
	Insert(ctx context.Context, e Entry) error
}

// AlertPublisher fans critical events out to the security alert queue.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert queue.SecurityAlert) error
}

// Sink appends audit entries and escalates critical ones. Emit never fails
// the caller: an audit or alert write failure must not abort the login or
// promotion that triggered it, so failures are logged loudly instead.
type Sink struct {
	store  Store
	alerts AlertPublisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewSink builds an audit sink. alerts may be nil when no broker is
// configured; critical events then only hit the durable store and the log.
func NewSink(store Store, alerts AlertPublisher, log zerolog.Logger) *Sink {
	return &Sink{store: store, alerts: alerts, log: log, now: time.Now}
}

// Emit records one event performed by actorID. Best-effort by design:
// failures are surfaced to operators through the log, never to the caller.
func (s *Sink) Emit(ctx context.Context, actorID uint64, meta RequestMeta, ev Event) {
	kind, id := ev.Resource()
	entry := Entry{
		EventID:    uuid.NewString(),
		ActorID:    actorID,
		Action:     ev.Action(),
		Resource:   kind,
		ResourceID: id,
		Severity:   ev.Severity(),
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		OccurredAt: s.now().UTC(),
	}

	oldVal, newVal := ev.Values()
	entry.OldValue = marshalValue(s.log, oldVal)
	entry.NewValue = marshalValue(s.log, newVal)

	if err := s.store.Insert(ctx, entry); err != nil {
		s.log.Error().Err(err).
			Str("action", entry.Action).
			Str("severity", string(entry.Severity)).
			Uint64("actor_id", actorID).
			Msg("audit write failed; security trail has a gap")
	}

	if ev.Severity() != SeverityCritical || s.alerts == nil {
		return
	}
	alert := queue.SecurityAlert{
		EventID:    entry.EventID,
		Action:     entry.Action,
		ActorID:    actorID,
		Resource:   entry.Resource + ":" + entry.ResourceID,
		Severity:   string(entry.Severity),
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		OccurredAt: entry.OccurredAt.Format(time.RFC3339),
		Details:    entry.NewValue,
	}
	if err := s.alerts.PublishAlert(ctx, alert); err != nil {
		s.log.Error().Err(err).
			Str("action", entry.Action).
			Msg("critical alert publish failed")
	}
}

func marshalValue(log zerolog.Logger, v any) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("audit value marshal failed")
		return nil
	}
	return b
}

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }
