package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/stagehand/internal/config"
	"github.com/fyrsmithlabs/stagehand/internal/logging"
)

// NATS publishes stage reports to <subject_prefix>.<stage>.
type NATS struct {
	conn    *nats.Conn
	prefix  string
	timeout time.Duration
	logger  *logging.Logger
}

// NewNATS connects to the configured NATS server. Reports are
// fire-and-forget publishes; a flush bounds how long Emit waits for
// the server to accept them.
func NewNATS(cfg config.NATSConfig, logger *logging.Logger) (*NATS, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("stagehand"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", cfg.URL, err)
	}

	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATS{
		conn:    conn,
		prefix:  cfg.SubjectPrefix,
		timeout: timeout,
		logger:  logger.Named("report.nats"),
	}, nil
}

func (n *NATS) Emit(ctx context.Context, rep *StageReport) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", n.prefix, rep.Stage)
	if err := n.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publishing report to %s: %w", subject, err)
	}
	if err := n.conn.FlushTimeout(n.timeout); err != nil {
		return fmt.Errorf("flushing report to %s: %w", subject, err)
	}

	n.logger.Debug(ctx, "report published",
		zap.String("subject", subject), zap.Int("bytes", len(payload)))
	return nil
}

// Close drains the connection.
func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

var _ Emitter = (*NATS)(nil)
