package realtime

import (
	"context"
	"reflect"
	"sync"

	"github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/gorm"
)

// Owned rows name the user whose feed receives their change events.
type Owned interface {
	Owner() string
}

type outboxKey struct{}

// Outbox holds events raised inside a transaction until it commits.
type Outbox struct {
	mu     sync.Mutex
	events []Event
}

// WithOutbox attaches a fresh outbox to ctx. Row events raised through a
// *gorm.DB carrying this ctx are queued instead of published.
func WithOutbox(ctx context.Context) (context.Context, *Outbox) {
	o := &Outbox{}
	return context.WithValue(ctx, outboxKey{}, o), o
}

func outboxFrom(ctx context.Context) *Outbox {
	if ctx == nil {
		return nil
	}
	o, _ := ctx.Value(outboxKey{}).(*Outbox)
	return o
}

func (o *Outbox) Add(e Event) {
	o.mu.Lock()
	o.events = append(o.events, e)
	o.mu.Unlock()
}

// Events returns a copy of the queued events.
func (o *Outbox) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Event(nil), o.events...)
}

// Discard drops queued events, used after a rollback.
func (o *Outbox) Discard() {
	o.mu.Lock()
	o.events = nil
	o.mu.Unlock()
}

// Flush publishes queued events in order. Failures are logged, not returned:
// the rows are already committed.
func (o *Outbox) Flush(ctx context.Context, feed Feed) {
	o.mu.Lock()
	events := o.events
	o.events = nil
	o.mu.Unlock()

	// Publishing must not see the outbox again.
	ctx = context.WithValue(ctx, outboxKey{}, (*Outbox)(nil))
	for _, e := range events {
		if err := feed.Publish(ctx, e); err != nil {
			logger.Error("Failed to publish realtime event", err, map[string]interface{}{
				"table":   e.Table,
				"type":    e.Type,
				"user_id": e.UserID,
			})
		}
	}
}

// RegisterChangeCapture adds a gorm create callback that raises an INSERT
// event for each row written to one of tables.
func RegisterChangeCapture(db *gorm.DB, feed Feed, tables ...string) error {
	watched := make(map[string]bool, len(tables))
	for _, t := range tables {
		watched[t] = true
	}

	return db.Callback().Create().After("gorm:create").Register("realtime:capture_insert", func(tx *gorm.DB) {
		if tx.Error != nil || tx.Statement.Schema == nil || tx.RowsAffected == 0 {
			return
		}
		table := tx.Statement.Schema.Table
		if !watched[table] {
			return
		}

		ctx := tx.Statement.Context
		outbox := outboxFrom(ctx)
		for _, row := range collectRows(tx.Statement.ReflectValue) {
			owner := ""
			if o, ok := row.(Owned); ok {
				owner = o.Owner()
			}
			e, err := RowEvent(Insert, table, owner, row)
			if err != nil {
				logger.Error("Failed to encode realtime row", err, map[string]interface{}{
					"table": table,
				})
				continue
			}
			if outbox != nil {
				outbox.Add(e)
				continue
			}
			if err := feed.Publish(ctx, e); err != nil {
				logger.Error("Failed to publish realtime event", err, map[string]interface{}{
					"table":   table,
					"user_id": owner,
				})
			}
		}
	})
}

func collectRows(rv reflect.Value) []interface{} {
	rv = reflect.Indirect(rv)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		rows := make([]interface{}, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			rows = append(rows, reflect.Indirect(rv.Index(i)).Interface())
		}
		return rows
	case reflect.Struct:
		return []interface{}{rv.Interface()}
	default:
		return nil
	}
}
