package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/pasteldream/pastel-backend/pkg/logger"
)

const natsSubjectPrefix = "pastel.realtime."

// NATSFeed fans events across processes over NATS subjects.
type NATSFeed struct {
	conn     *nats.Conn
	sub      *nats.Subscription
	d        *dispatcher
	ownsConn bool
}

// DialNATS connects to url and returns a feed that owns the connection.
func DialNATS(url string) (*NATSFeed, error) {
	conn, err := nats.Connect(url,
		nats.Name("pastel-backend"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	f, err := NewNATSFeed(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	f.ownsConn = true
	return f, nil
}

func NewNATSFeed(conn *nats.Conn) (*NATSFeed, error) {
	f := &NATSFeed{conn: conn, d: newDispatcher()}
	sub, err := conn.Subscribe(natsSubjectPrefix+">", func(m *nats.Msg) {
		var e Event
		if err := json.Unmarshal(m.Data, &e); err != nil {
			logger.Warn("Dropping malformed realtime message", map[string]interface{}{
				"subject": m.Subject,
				"error":   err.Error(),
			})
			return
		}
		f.d.dispatch(e)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to realtime subjects: %w", err)
	}
	f.sub = sub

	logger.Info("NATS realtime feed started", map[string]interface{}{
		"subject": natsSubjectPrefix + ">",
	})
	return f, nil
}

func (f *NATSFeed) Publish(_ context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return f.conn.Publish(natsSubjectPrefix+e.Channel, data)
}

func (f *NATSFeed) Subscribe(filter Filter, h Handler) (Subscription, error) {
	s, err := f.d.add(filter, h)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f *NATSFeed) Close() error {
	f.d.close()
	err := f.sub.Unsubscribe()
	if f.ownsConn {
		f.conn.Close()
	}
	return err
}
