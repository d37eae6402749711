package trigger

import "strings"

// AllowlistSet normalizes guild allow-list values into a lookup set.
//
// Empty input returns nil, which GuildAllowed treats as allow-all.
func AllowlistSet(allowlist []string) map[string]struct{} {
	if len(allowlist) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowlist))
	for _, value := range allowlist {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}

	if len(allowed) == 0 {
		return nil
	}

	return allowed
}

// GuildAllowed checks whether a guild is permitted by the allow-list.
//
// When no allow-list is configured, all guilds are accepted. Direct
// messages carry no guild id and are gated by the DM-enable flag instead,
// not by this check.
func GuildAllowed(guildID string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}

	_, ok := allowed[strings.TrimSpace(guildID)]
	return ok
}
