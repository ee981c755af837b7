package guildconfig

import (
	"fmt"
	"strings"
)

// Behavior is the response a guild configures for a verdict category.
type Behavior string

const (
	BehaviorAuto   Behavior = "auto"
	BehaviorNotify Behavior = "notify"
	BehaviorIgnore Behavior = "ignore"
)

func ParseBehavior(value string) (Behavior, bool) {
	switch Behavior(strings.ToLower(strings.TrimSpace(value))) {
	case BehaviorAuto:
		return BehaviorAuto, true
	case BehaviorNotify:
		return BehaviorNotify, true
	case BehaviorIgnore:
		return BehaviorIgnore, true
	default:
		return "", false
	}
}

const (
	KeyKeywordBanBehavior = "keyword_ban_behavior"
	KeyIDBanBehavior      = "id_ban_behavior"
	KeyDMOnBan            = "dm_on_ban"
	KeyLogBans            = "log_bans"
	KeyNotifyStaff        = "notify_staff"
)

// Keys lists the recognized settings in display order.
var Keys = []string{
	KeyKeywordBanBehavior,
	KeyIDBanBehavior,
	KeyDMOnBan,
	KeyLogBans,
	KeyNotifyStaff,
}

func IsKey(key string) bool {
	for _, known := range Keys {
		if key == known {
			return true
		}
	}
	return false
}

type GuildConfig struct {
	KeywordBanBehavior Behavior `json:"keyword_ban_behavior"`
	IDBanBehavior      Behavior `json:"id_ban_behavior"`
	DMOnBan            bool     `json:"dm_on_ban"`
	LogBans            bool     `json:"log_bans"`
	NotifyStaff        bool     `json:"notify_staff"`
}

func Default() GuildConfig {
	return GuildConfig{
		KeywordBanBehavior: BehaviorAuto,
		IDBanBehavior:      BehaviorAuto,
		DMOnBan:            true,
		LogBans:            true,
		NotifyStaff:        true,
	}
}

// Value returns the setting under key in its display form.
func (c GuildConfig) Value(key string) (string, bool) {
	switch key {
	case KeyKeywordBanBehavior:
		return string(c.KeywordBanBehavior), true
	case KeyIDBanBehavior:
		return string(c.IDBanBehavior), true
	case KeyDMOnBan:
		return fmt.Sprintf("%t", c.DMOnBan), true
	case KeyLogBans:
		return fmt.Sprintf("%t", c.LogBans), true
	case KeyNotifyStaff:
		return fmt.Sprintf("%t", c.NotifyStaff), true
	default:
		return "", false
	}
}

// ValidationError rejects an update without touching stored state.
type ValidationError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid setting %s=%v: %s", e.Key, e.Value, e.Reason)
}

// apply coerces value into the field named by key.
func (c *GuildConfig) apply(key string, value any) error {
	switch key {
	case KeyKeywordBanBehavior, KeyIDBanBehavior:
		behavior, ok := coerceBehavior(value)
		if !ok {
			return &ValidationError{Key: key, Value: value, Reason: "must be one of auto, notify, ignore"}
		}
		if key == KeyIDBanBehavior {
			c.IDBanBehavior = behavior
		} else {
			c.KeywordBanBehavior = behavior
		}
	case KeyDMOnBan, KeyLogBans, KeyNotifyStaff:
		flag, ok := coerceBool(value)
		if !ok {
			return &ValidationError{Key: key, Value: value, Reason: "must be a boolean"}
		}
		switch key {
		case KeyDMOnBan:
			c.DMOnBan = flag
		case KeyLogBans:
			c.LogBans = flag
		default:
			c.NotifyStaff = flag
		}
	default:
		return &ValidationError{Key: key, Value: value, Reason: "unknown setting"}
	}
	return nil
}

func coerceBehavior(value any) (Behavior, bool) {
	switch v := value.(type) {
	case Behavior:
		return ParseBehavior(string(v))
	case string:
		return ParseBehavior(v)
	default:
		return "", false
	}
}

func coerceBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "on", "enabled":
			return true, true
		case "false", "no", "n", "0", "off", "disabled":
			return false, true
		}
	case int:
		return intBool(int64(v))
	case int64:
		return intBool(v)
	case float64:
		if v == 0 || v == 1 {
			return v == 1, true
		}
	}
	return false, false
}

func intBool(v int64) (bool, bool) {
	if v == 0 || v == 1 {
		return v == 1, true
	}
	return false, false
}
