package mqtt

import (
	"io"
	"log/slog"
)

// queuedMsg is a message held back while the broker is unreachable.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox keeps messages published while disconnected, oldest first, for
// replay on reconnect. A retained message replaces any earlier retained
// message on the same topic because the broker keeps only the last one.
// At the limit the oldest message is dropped.
// Not safe for concurrent use; RealPublisher holds its mutex around it.
type outbox struct {
	msgs    []queuedMsg
	limit   int
	dropped int
	logger  *slog.Logger
}

func newOutbox(limit int, logger *slog.Logger) *outbox {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &outbox{limit: limit, logger: logger}
}

func (o *outbox) add(m queuedMsg) {
	if m.retained {
		o.dropRetained(m.topic)
	}
	if len(o.msgs) == o.limit {
		if o.dropped == 0 {
			o.logger.Warn("mqtt outbox full, dropping oldest", "limit", o.limit)
		}
		o.dropped++
		o.msgs = append(o.msgs[:0], o.msgs[1:]...)
	}
	o.msgs = append(o.msgs, m)
}

// dropRetained removes queued retained messages for topic.
func (o *outbox) dropRetained(topic string) {
	kept := o.msgs[:0]
	for _, q := range o.msgs {
		if q.retained && q.topic == topic {
			continue
		}
		kept = append(kept, q)
	}
	o.msgs = kept
}

// flush empties the outbox. It returns the queued messages oldest first and
// how many were dropped for space since the previous flush.
func (o *outbox) flush() ([]queuedMsg, int) {
	msgs, dropped := o.msgs, o.dropped
	o.msgs = nil
	o.dropped = 0
	if len(msgs) == 0 {
		return nil, dropped
	}
	return msgs, dropped
}

func (o *outbox) len() int {
	return len(o.msgs)
}
