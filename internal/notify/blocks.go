package notify

import (
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/assetledger/internal/domain"
)

// integrityText is the plain-text fallback shown in Slack notifications.
func integrityText(entityID string, v domain.ChainVerification) string {
	return fmt.Sprintf("SECURITY ALERT: audit chain for asset %s is compromised at record %d", entityID, derefIndex(v.BrokenAtIndex))
}

// BuildIntegrityBlocks builds Slack Block Kit blocks describing a broken chain.
func BuildIntegrityBlocks(entityID string, v domain.ChainVerification) []slacklib.Block {
	header := slacklib.NewHeaderBlock(
		slacklib.NewTextBlockObject(slacklib.PlainTextType, ":rotating_light: Audit chain compromised", true, false),
	)

	failure := "unknown"
	if v.Failure != nil {
		failure = string(*v.Failure)
	}

	fields := []*slacklib.TextBlockObject{
		slacklib.NewTextBlockObject(slacklib.MarkdownType, fmt.Sprintf("*Asset:*\n`%s`", entityID), false, false),
		slacklib.NewTextBlockObject(slacklib.MarkdownType, fmt.Sprintf("*Broken at:*\nrecord %d", derefIndex(v.BrokenAtIndex)), false, false),
		slacklib.NewTextBlockObject(slacklib.MarkdownType, fmt.Sprintf("*Failure:*\n`%s`", failure), false, false),
		slacklib.NewTextBlockObject(slacklib.MarkdownType, fmt.Sprintf("*Verified:*\n%d of %d", v.VerifiedRecords, v.TotalRecords), false, false),
	}
	summary := slacklib.NewSectionBlock(nil, fields, nil)

	if v.ErrorMessage == nil || *v.ErrorMessage == "" {
		return []slacklib.Block{header, summary}
	}

	detail := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, *v.ErrorMessage, false, false),
		nil,
		nil,
	)

	return []slacklib.Block{header, summary, detail}
}

func derefIndex(i *int) int {
	if i == nil {
		return -1
	}
	return *i
}
