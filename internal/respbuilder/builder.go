package respbuilder

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cortexsearch/codesearch/internal/confidence"
	"github.com/cortexsearch/codesearch/internal/indexsvc"
)

// Config tunes the budgets and caps the envelope-building procedure uses
// to decide how many results to inline versus point a caller at the
// detail cache for.
type Config struct {
	// SummaryTokenBudget and FullTokenBudget are the soft targets step 3
	// checks the pre-estimate against.
	SummaryTokenBudget int
	FullTokenBudget    int

	// HardTokenCap triggers the safety limit when the pre-estimate exceeds
	// it regardless of mode.
	HardTokenCap int

	// DefaultInlineCount is how many results summary mode inlines absent
	// a tighter confidence recommendation.
	DefaultInlineCount int

	// SafetyLimitResultCount is how many results survive a safety-limit
	// truncation.
	SafetyLimitResultCount int

	// CharsPerToken approximates token count from serialised character
	// count ("char-count/4").
	CharsPerToken int

	// StructuralOverheadTokens accounts for envelope scaffolding beyond
	// the results themselves.
	StructuralOverheadTokens int

	// DetailCacheTTL is how long a minted detail-request token remains
	// redeemable.
	DetailCacheTTL time.Duration
}

// DefaultConfig returns the response-builder's out-of-the-box budgets.
func DefaultConfig() Config {
	return Config{
		SummaryTokenBudget:       2000,
		FullTokenBudget:          8000,
		HardTokenCap:             12000,
		DefaultInlineCount:       10,
		SafetyLimitResultCount:   3,
		CharsPerToken:            4,
		StructuralOverheadTokens: 200,
		DetailCacheTTL:           5 * time.Minute,
	}
}

// Request is BuildResponse's input: one completed search plus the mode
// the caller asked for.
type Request struct {
	Path          string
	QueryStr      string
	Operation     string
	Mode          Mode
	ContextRadius int
	SearchResult  *indexsvc.SearchResult
}

// Builder assembles response envelopes and owns the detail cache tokens
// are minted against.
type Builder struct {
	cfg   Config
	cache *DetailCache
}

// New builds a Builder with cfg's budgets and a detail cache sized to
// cfg.DetailCacheTTL.
func New(cfg Config) *Builder {
	return &Builder{cfg: cfg, cache: NewDetailCache(cfg.DetailCacheTTL, 256)}
}

// Build assembles a response envelope from a completed search: it picks
// how many hits to inline given the requested mode and the confidence
// assessment, computes file/directory distribution and hotspots, and
// falls back to a safety-limited envelope if the full one would blow the
// token budget.
func (b *Builder) Build(req Request) *Envelope {
	hits := req.SearchResult.Hits
	total := int(req.SearchResult.TotalHits)

	distribution := computeDistribution(hits)
	hotspots := computeHotspots(hits)

	scores := make([]float64, len(hits))
	for i, h := range hits {
		scores[i] = h.Score
	}
	assessment := confidence.Assess(scores)

	inlineCount := b.pickInlineCount(req.Mode, len(hits), hits, assessment)

	results := toResults(hits[:inlineCount])
	env := &Envelope{
		Success:   true,
		Operation: req.Operation,
		Query: Query{
			Path:         req.Path,
			Text:         req.QueryStr,
			ContextLines: req.ContextRadius,
			Mode:         req.Mode,
		},
		Summary: summaryLine(total, req.QueryStr),
		Results: results,
		ResultsSummary: ResultsSummary{
			Included: len(results),
			Total:    total,
			HasMore:  len(results) < total,
		},
		Distribution: distribution,
		Hotspots:     hotspots,
	}

	if estimateTokens(env, b.cfg) > b.cfg.HardTokenCap {
		b.applySafetyLimit(env, hits)
	}

	env.Insights = generateInsights(env, assessment, hits)
	env.Actions = generateActions(env, assessment)

	if req.Mode == ModeSummary && env.ResultsSummary.HasMore && !env.Meta.SafetyLimitApplied {
		token := b.cache.Store(DetailEntry{AllResults: toResults(hits), Hits: len(hits)})
		env.Meta.DetailRequestToken = token
		env.Meta.AvailableDetailLevels = detailLevels(hits)
	}

	env.Meta.Mode = req.Mode
	env.Meta.EstimatedTokens = estimateTokens(env, b.cfg)

	return env
}

// LookupDetail redeems a detail-request token minted by a prior Build
// call.
func (b *Builder) LookupDetail(token string) (DetailEntry, bool) {
	return b.cache.Lookup(token)
}

func (b *Builder) pickInlineCount(mode Mode, available int, hits []*indexsvc.Hit, assessment *confidence.Assessment) int {
	if mode == ModeFull {
		return available
	}

	inlineCap := b.cfg.DefaultInlineCount
	if assessment.RecommendedCount > 0 && assessment.RecommendedCount < inlineCap {
		inlineCap = assessment.RecommendedCount
	}

	// Context lines roughly double a result's serialised size, so halve
	// the inline cap whenever the hits we'd inline carry any: the same
	// token budget buys half as many contextful results as bare ones.
	if hasContextLines(hits, available) {
		inlineCap /= 2
		if inlineCap < 1 {
			inlineCap = 1
		}
	}

	if inlineCap > available {
		inlineCap = available
	}
	return inlineCap
}

func hasContextLines(hits []*indexsvc.Hit, limit int) bool {
	if limit > len(hits) {
		limit = len(hits)
	}
	for _, h := range hits[:limit] {
		if h.Line != nil && h.Line.ContextLines != "" {
			return true
		}
	}
	return false
}

func toResults(hits []*indexsvc.Hit) []Result {
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		r := Result{
			File:  h.Filename,
			Path:  h.Path,
			Score: h.Score,
		}
		if h.Line != nil {
			r.Line = h.Line.LineNumber
			r.Context = toContextLines(h.Line.ContextLines, h.Line.StartLine, h.Line.LineNumber)
		}
		if len(h.Snippets) > 0 {
			r.Snippet = h.Snippets[0].Text
		}
		results = append(results, r)
	}
	return results
}

func toContextLines(contextLines string, startLine, matchLine int) []ContextLine {
	if contextLines == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(contextLines, "\n"), "\n")
	out := make([]ContextLine, 0, len(lines))
	for i, text := range lines {
		lineNo := startLine + i
		out = append(out, ContextLine{
			Line:    lineNo,
			Content: text,
			Match:   lineNo == matchLine,
		})
	}
	return out
}

func computeDistribution(hits []*indexsvc.Hit) Distribution {
	byExt := make(map[string]int)
	byDir := make(map[string]int)
	for _, h := range hits {
		byExt[h.Extension]++
		byDir[h.Directory]++
	}
	return Distribution{ByExtension: byExt, ByDirectory: byDir}
}

func computeHotspots(hits []*indexsvc.Hit) []Hotspot {
	type agg struct {
		matches int
		lines   int
	}
	byFile := make(map[string]*agg)
	for _, h := range hits {
		a, ok := byFile[h.Path]
		if !ok {
			a = &agg{}
			byFile[h.Path] = a
		}
		a.matches++
		if h.Line != nil {
			a.lines += h.Line.EndLine - h.Line.StartLine + 1
		}
	}

	hotspots := make([]Hotspot, 0, len(byFile))
	for file, a := range byFile {
		hotspots = append(hotspots, Hotspot{File: file, Matches: a.matches, Lines: a.lines})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Matches != hotspots[j].Matches {
			return hotspots[i].Matches > hotspots[j].Matches
		}
		return hotspots[i].File < hotspots[j].File
	})

	const maxHotspots = 5
	if len(hotspots) > maxHotspots {
		hotspots = hotspots[:maxHotspots]
	}
	return hotspots
}

func summaryLine(total int, query string) string {
	if total == 0 {
		return fmt.Sprintf("no matches for %q", query)
	}
	if total == 1 {
		return fmt.Sprintf("1 match for %q", query)
	}
	return fmt.Sprintf("%d matches for %q", total, query)
}

// estimateTokens approximates the serialised payload's token count as
// char-count/4 plus a fixed structural overhead.
func estimateTokens(env *Envelope, cfg Config) int {
	chars := 0
	for _, r := range env.Results {
		chars += len(r.File) + len(r.Path) + len(r.Snippet)
		for _, c := range r.Context {
			chars += len(c.Content)
		}
	}
	chars += len(env.Summary)
	for _, i := range env.Insights {
		chars += len(i)
	}

	divisor := cfg.CharsPerToken
	if divisor <= 0 {
		divisor = 4
	}
	return chars/divisor + cfg.StructuralOverheadTokens
}

// applySafetyLimit is the token-budget fallback: drop to a small fixed
// result count, strip context (the expensive part), and flag the
// truncation so the caller knows to ask for more deliberately.
func (b *Builder) applySafetyLimit(env *Envelope, hits []*indexsvc.Hit) {
	limit := b.cfg.SafetyLimitResultCount
	if limit > len(hits) {
		limit = len(hits)
	}

	trimmed := toResults(hits[:limit])
	for i := range trimmed {
		trimmed[i].Context = nil
	}

	env.Results = trimmed
	env.ResultsSummary = ResultsSummary{
		Included: len(trimmed),
		Total:    env.ResultsSummary.Total,
		HasMore:  len(trimmed) < env.ResultsSummary.Total,
	}
	env.Meta.SafetyLimitApplied = true
	env.Insights = append([]string{"response truncated to fit the token budget; request full details for the rest"}, env.Insights...)
}

func generateInsights(env *Envelope, assessment *confidence.Assessment, hits []*indexsvc.Hit) []string {
	var insights []string

	if env.ResultsSummary.Total == 0 {
		insights = append(insights, "no results matched; try a broader query or check spelling")
		return insights
	}

	if assessment.Insight != "" {
		insights = append(insights, assessment.Insight)
	}

	if ext, count := predominantExtension(env.Distribution.ByExtension); ext != "" && count > len(hits)/2 {
		insights = append(insights, fmt.Sprintf("most matches are in .%s files", ext))
	}

	if len(env.Hotspots) > 0 && env.Hotspots[0].Matches >= 3 {
		insights = append(insights, fmt.Sprintf("%s concentrates %d matches", env.Hotspots[0].File, env.Hotspots[0].Matches))
	}

	return insights
}

func predominantExtension(byExt map[string]int) (string, int) {
	var best string
	var bestCount int
	for ext, count := range byExt {
		if count > bestCount {
			best, bestCount = ext, count
		}
	}
	return best, bestCount
}

func generateActions(env *Envelope, assessment *confidence.Assessment) []Action {
	var actions []Action

	if env.ResultsSummary.Total == 0 {
		actions = append(actions,
			Action{ID: "narrow-query", Tokens: 0, Priority: ActionPriorityHigh, Context: ActionContextEmptyResults},
			Action{ID: "try-fuzzy", Tokens: 0, Priority: ActionPriorityMedium, Context: ActionContextEmptyResults},
			Action{ID: "try-wildcard", Tokens: 0, Priority: ActionPriorityLow, Context: ActionContextEmptyResults},
		)
		return actions
	}

	if len(env.Results) > 0 {
		actions = append(actions, Action{
			ID:         "view-first-result",
			Parameters: map[string]interface{}{"path": env.Results[0].Path},
			Tokens:     estimatedActionTokens,
			Priority:   ActionPriorityHigh,
			Context:    ActionContextAlways,
		})
	}

	if ext, _ := predominantExtension(env.Distribution.ByExtension); ext != "" {
		actions = append(actions, Action{
			ID:         "filter-by-top-extension",
			Parameters: map[string]interface{}{"extension": ext},
			Tokens:     estimatedActionTokens,
			Priority:   ActionPriorityMedium,
			Context:    ActionContextManyResults,
		})
	}

	if env.ResultsSummary.Total > env.ResultsSummary.Included {
		actions = append(actions, Action{
			ID:       "request-full-details",
			Tokens:   estimatedActionTokens,
			Priority: ActionPriorityMedium,
			Context:  ActionContextManyResults,
		})
	}

	if assessment.Level == confidence.LevelLow {
		actions = append(actions,
			Action{ID: "narrow-query", Tokens: 0, Priority: ActionPriorityLow, Context: ActionContextExploration},
			Action{ID: "try-fuzzy", Tokens: 0, Priority: ActionPriorityLow, Context: ActionContextExploration},
		)
	}

	return actions
}

const estimatedActionTokens = 20

func detailLevels(hits []*indexsvc.Hit) []DetailLevel {
	perHit := 40
	return []DetailLevel{
		{Name: "full-content", EstimatedTokens: len(hits) * perHit * 2},
		{Name: "with-relationships", EstimatedTokens: len(hits) * perHit},
		{Name: "with-file-analysis", EstimatedTokens: len(hits) * perHit / 2},
	}
}
