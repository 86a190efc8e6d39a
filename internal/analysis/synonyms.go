package analysis

import "log/slog"

// synonymGroups is the static bidirectional synonym mapping. Within a
// group every member expands to every other member. Groups are organised
// around the vocabulary a code search over backend services tends to hit.
var synonymGroups = [][]string{
	{"auth", "authn", "authentication", "authorization", "authz"},
	{"database", "db", "datastore", "storage"},
	{"api", "endpoint", "route", "handler"},
	{"config", "configuration", "settings", "options"},
	{"test", "spec", "suite"},
	{"error", "err", "exception", "failure"},
	{"performance", "perf", "latency", "throughput"},
	{"logging", "log", "logger", "telemetry"},
}

// BuildSynonymMap expands synonymGroups into a term -> expansions lookup.
// Failures degrade to an empty, non-nil map and are logged at warn level to
// logger when it is non-nil; they never fail indexing.
func BuildSynonymMap(logger *slog.Logger) map[string][]string {
	result := make(map[string][]string)

	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Warn("synonym map construction panicked, degrading to empty map", "panic", r)
			}
			result = make(map[string][]string)
		}
	}()

	for _, group := range synonymGroups {
		if len(group) < 2 {
			continue
		}
		for _, member := range group {
			var expansions []string
			for _, other := range group {
				if other != member {
					expansions = append(expansions, other)
				}
			}
			result[member] = append(result[member], expansions...)
		}
	}

	return result
}
