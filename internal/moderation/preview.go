package moderation

import (
	"context"

	"despawner/internal/guildconfig"
)

// Prediction is what the engine would do for one check.
type Prediction int

const (
	WouldNotBan Prediction = iota
	WouldBan
	WouldNotify
	WouldIgnore
)

func predict(matched bool, behavior guildconfig.Behavior) Prediction {
	if !matched {
		return WouldNotBan
	}
	switch behavior {
	case guildconfig.BehaviorAuto:
		return WouldBan
	case guildconfig.BehaviorNotify:
		return WouldNotify
	default:
		return WouldIgnore
	}
}

type FieldCheck struct {
	Field      Field
	Text       string
	Keyword    string
	Prediction Prediction
}

// Preview is a dry run: every check is reported individually and nothing is
// acted on.
type Preview struct {
	Member  Member
	Verdict Verdict
	Config  guildconfig.GuildConfig
	IDCheck Prediction
	Fields  []FieldCheck
	// Action is the prediction for the canonical verdict.
	Action Prediction
}

// SyntheticMember is the placeholder member used when a dry run is not given
// one.
func SyntheticMember() Member {
	return Member{
		ID:          "123456789",
		DisplayName: "TestUser",
		Nickname:    "spawnist_test",
		GlobalName:  "Test Account",
	}
}

func (e *Engine) Preview(ctx context.Context, guildID string, m Member) Preview {
	cfg := e.configs.Get(ctx, guildID)
	self := e.isSelf(m.ID)
	p := Preview{
		Member:  m,
		Verdict: e.Evaluate(m),
		Config:  cfg,
		IDCheck: predict(m.ID != "" && !self && e.denylist.Contains(m.ID), cfg.IDBanBehavior),
	}
	for _, fv := range m.Fields() {
		kw, ok := e.keywords.FirstMatch(fv.Text)
		p.Fields = append(p.Fields, FieldCheck{
			Field:      fv.Field,
			Text:       fv.Text,
			Keyword:    kw,
			Prediction: predict(ok && !self, cfg.KeywordBanBehavior),
		})
	}

	switch p.Verdict.Kind {
	case IDMatch:
		p.Action = predict(true, cfg.IDBanBehavior)
	case KeywordMatch:
		p.Action = predict(true, cfg.KeywordBanBehavior)
	default:
		p.Action = WouldNotBan
	}
	return p
}
