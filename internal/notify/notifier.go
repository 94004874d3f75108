// Package notify delivers ledger integrity alerts to Slack.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/assetledger/internal/domain"
)

// SlackAPI abstracts the subset of the Slack client used by Notifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// Notifier posts integrity alerts to a Slack channel. Repeated alerts for
// the same break of the same chain are sent once.
type Notifier struct {
	api     SlackAPI
	channel string

	// sent maps entity id -> last alerted break signature.
	sent sync.Map
}

// New creates a Notifier. With a nil api or an empty channel alerts are
// only logged.
func New(api SlackAPI, channel string) *Notifier {
	return &Notifier{api: api, channel: channel}
}

// NewSlack creates a Notifier backed by the Slack Web API.
func NewSlack(botToken, channel string) *Notifier {
	if botToken == "" {
		return New(nil, channel)
	}
	return New(slacklib.New(botToken), channel)
}

// AlertIntegrity reports a failed chain verification.
func (n *Notifier) AlertIntegrity(ctx context.Context, entityID string, v domain.ChainVerification) error {
	if v.IsValid {
		n.sent.Delete(entityID)
		return nil
	}

	signature := breakSignature(v)
	if prev, loaded := n.sent.Swap(entityID, signature); loaded && prev == signature {
		return nil
	}

	if n.api == nil || n.channel == "" {
		log.Warn().
			Str("entity_id", entityID).
			Int("broken_at_index", derefIndex(v.BrokenAtIndex)).
			Msg("notify: slack not configured, integrity alert logged only")
		return nil
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channel,
		slacklib.MsgOptionText(integrityText(entityID, v), false),
		slacklib.MsgOptionBlocks(BuildIntegrityBlocks(entityID, v)...),
	)
	if err != nil {
		// Forget the signature so the next verification retries delivery.
		n.sent.CompareAndDelete(entityID, signature)
		return fmt.Errorf("notify.Notifier.AlertIntegrity: %w", err)
	}

	return nil
}

func breakSignature(v domain.ChainVerification) string {
	failure := ""
	if v.Failure != nil {
		failure = string(*v.Failure)
	}
	return fmt.Sprintf("%d:%s", derefIndex(v.BrokenAtIndex), failure)
}
