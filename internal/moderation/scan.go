package moderation

import (
	"context"

	"go.uber.org/zap"
)

type ScanResult struct {
	Member  Member
	Verdict Verdict
	Outcome Outcome
}

// ScanReport summarizes a bulk scan of a guild's members.
type ScanReport struct {
	Checked        int
	DenylistSize   int
	IDMatches      []Member
	KeywordMatches []Member
	Banned         int
	Notified       int
	Skipped        int
	Failed         int
	Results        []ScanResult
}

// Scan evaluates and acts on every member in order, one at a time. The bot's
// own account is skipped. On cancellation the partial report is returned
// along with the context error.
func (e *Engine) Scan(ctx context.Context, guildID string, members []Member) (ScanReport, error) {
	report := ScanReport{DenylistSize: e.denylist.Len()}

	for _, m := range members {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("scan interrupted", zap.String("guild_id", guildID), zap.Int("checked", report.Checked))
			return report, err
		}
		if e.isSelf(m.ID) {
			continue
		}
		report.Checked++

		verdict, outcome := e.Process(ctx, guildID, m)
		switch verdict.Kind {
		case IDMatch:
			report.IDMatches = append(report.IDMatches, m)
		case KeywordMatch:
			report.KeywordMatches = append(report.KeywordMatches, m)
		default:
			continue
		}

		switch outcome.Kind {
		case Banned:
			report.Banned++
		case Notified:
			report.Notified++
		case Failed:
			report.Failed++
		default:
			report.Skipped++
		}
		report.Results = append(report.Results, ScanResult{Member: m, Verdict: verdict, Outcome: outcome})
	}

	e.logger.Info("scan finished",
		zap.String("guild_id", guildID),
		zap.Int("checked", report.Checked),
		zap.Int("id_matches", len(report.IDMatches)),
		zap.Int("keyword_matches", len(report.KeywordMatches)),
		zap.Int("banned", report.Banned),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
