package eventbus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects emitted by the API. Downstream analytics consumers subscribe to
// askpair.> and fan out from there.
const (
	SubjectSelections = "askpair.selections"
	SubjectFeedback   = "askpair.feedback"
)

// Bus is a best-effort event publisher. A nil *Bus (or one whose connection
// failed) is safe to call; publishes become no-ops so the request path never
// depends on the broker being up.
type Bus struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// Connect dials NATS. Connection failure is returned to the caller so main
// can log a warning, but the returned Bus is still usable as a no-op.
func Connect(url string, logger *zap.Logger) (*Bus, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return &Bus{logger: logger}, err
	}
	return &Bus{nc: nc, logger: logger}, nil
}

// Publish marshals the payload and publishes it. Errors are logged, never
// returned; selection and feedback writes must not fail on broker trouble.
func (b *Bus) Publish(subject string, payload any) {
	if b == nil || b.nc == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("event marshal failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := b.nc.Publish(subject, data); err != nil {
		b.logger.Warn("event publish failed", zap.String("subject", subject), zap.Error(err))
	}
}

// Healthy reports whether the underlying connection is up.
func (b *Bus) Healthy() bool {
	return b != nil && b.nc != nil && b.nc.IsConnected()
}

// Close drains the connection.
func (b *Bus) Close() {
	if b != nil && b.nc != nil {
		b.nc.Close()
	}
}
