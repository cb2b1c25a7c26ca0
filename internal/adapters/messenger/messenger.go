// Package messenger provides a log-backed implementation of the
// messaging gateway. It stands in for a real push channel (Telegram,
// email, mobile push) in single-node and development deployments.
package messenger

import (
	"context"
	"strings"

	"copyTradeEngine/internal/ports"
)

// LogMessenger writes every outbound message to the logger instead of a
// delivery channel. Interactive prompts therefore never receive replies,
// which makes confirmation-gated copies resolve by timeout.
type LogMessenger struct {
	logger ports.Logger
}

// NewLogMessenger creates a messenger that logs instead of delivering.
func NewLogMessenger(logger ports.Logger) *LogMessenger {
	return &LogMessenger{logger: logger}
}

// Send logs the message at info level.
func (m *LogMessenger) Send(ctx context.Context, msg ports.Message) error {
	fields := map[string]interface{}{
		"recipient": msg.Recipient,
		"text":      msg.Text,
	}
	if len(msg.Options) > 0 {
		fields["options"] = strings.Join(msg.Options, "/")
		fields["copyID"] = msg.CopyID
	}
	m.logger.Info(ctx, "Outbound message", fields)
	return nil
}
