// Package notify fans capacity alerts, multisig approvals, and audit score
// drops out to Slack.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"

	"github.com/contractforge/registry/pkg/auditchecklist"
	"github.com/contractforge/registry/pkg/capacity"
)

// Notifier sends registry events to a Slack channel.
type Notifier struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// New creates a Notifier. If botToken is empty, the notifier is a noop
// (logging only).
func New(botToken, channel string, logger *slog.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{client: client, channel: channel, logger: logger}
}

// IsEnabled reports whether the notifier has a usable Slack client.
func (n *Notifier) IsEnabled() bool {
	return n.client != nil && n.channel != ""
}

// CapacityAlert notifies on a capacity alert reaching Critical or Breached
// severity, per spec §4.5.
func (n *Notifier) CapacityAlert(ctx context.Context, contractID string, alert capacity.Alert) error {
	if alert.Severity != capacity.SeverityCritical && alert.Severity != capacity.SeverityBreached {
		return nil
	}
	text := fmt.Sprintf("%s capacity alert for %s: %s at %.1f%% consumed",
		severityEmoji(string(alert.Severity)), contractID, alert.Resource, alert.PctConsumed)
	return n.post(ctx, text)
}

// MultisigApproved notifies when a deploy proposal reaches the approved
// state and is ready for execution.
func (n *Notifier) MultisigApproved(ctx context.Context, contractID, proposalID string) error {
	text := fmt.Sprintf(":white_check_mark: deploy proposal %s for %s reached quorum and is ready to execute", proposalID, contractID)
	return n.post(ctx, text)
}

// AuditScoreDropped notifies when a contract's checklist badge falls to
// Fair or worse.
func (n *Notifier) AuditScoreDropped(ctx context.Context, contractID string, score float64, badge auditchecklist.Badge) error {
	if badge != auditchecklist.BadgeFair && badge != auditchecklist.BadgePoor && badge != auditchecklist.BadgeCritical {
		return nil
	}
	text := fmt.Sprintf(":warning: audit score for %s dropped to %.1f (%s)", contractID, score, badge)
	return n.post(ctx, text)
}

func (n *Notifier) post(ctx context.Context, text string) error {
	if !n.IsEnabled() {
		n.logger.Debug("slack notifier disabled, skipping post", "text", text)
		return nil
	}
	_, _, err := n.client.PostMessageContext(ctx, n.channel, goslack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	return nil
}

func severityEmoji(severity string) string {
	switch severity {
	case "breached":
		return ":rotating_light:"
	case "critical":
		return ":red_circle:"
	default:
		return ":large_yellow_circle:"
	}
}
