package moderation

// Member is the snapshot of a guild member the engine evaluates.
type Member struct {
	ID          string
	DisplayName string
	Nickname    string
	GlobalName  string
}

// Field names a profile field checked for keywords.
type Field string

const (
	FieldDisplayName Field = "display name"
	FieldNickname    Field = "nickname"
	FieldGlobalName  Field = "global name"
)

// Fields returns the member's profile fields in keyword check order.
func (m Member) Fields() []FieldValue {
	return []FieldValue{
		{Field: FieldDisplayName, Text: m.DisplayName},
		{Field: FieldNickname, Text: m.Nickname},
		{Field: FieldGlobalName, Text: m.GlobalName},
	}
}

type FieldValue struct {
	Field Field
	Text  string
}

type VerdictKind int

const (
	NoMatch VerdictKind = iota
	IDMatch
	KeywordMatch
)

func (k VerdictKind) String() string {
	switch k {
	case IDMatch:
		return "id_match"
	case KeywordMatch:
		return "keyword_match"
	default:
		return "no_match"
	}
}

// Verdict classifies a member. Identifier is set for IDMatch, Keyword and
// Field for KeywordMatch.
type Verdict struct {
	Kind       VerdictKind
	Identifier string
	Keyword    string
	Field      Field
}

type OutcomeKind int

const (
	Skipped OutcomeKind = iota
	Notified
	Banned
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Notified:
		return "notified"
	case Banned:
		return "banned"
	case Failed:
		return "failed"
	default:
		return "skipped"
	}
}

type FailureReason string

const (
	ReasonForbidden     FailureReason = "forbidden"
	ReasonPlatformError FailureReason = "platform_error"
)

// Outcome is the result of acting on a verdict. Reason and Detail are set
// only when Kind is Failed; BanCount only when Kind is Banned.
type Outcome struct {
	Kind     OutcomeKind
	Reason   FailureReason
	Detail   string
	BanCount int64
}
