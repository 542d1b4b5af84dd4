package common

import "strings"

// StrategyFor returns rendering strategy selected by template id: ids with
// "native" suffix are rendered natively, everything else is legacy markup.
func StrategyFor(templateID string) Strategy {
	id := strings.ToLower(strings.TrimSpace(templateID))
	if strings.HasSuffix(id, "-native") || strings.HasSuffix(id, "_native") {
		return StrategyNative
	}
	return StrategySandboxed
}
