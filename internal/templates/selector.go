package templates

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"posterlab/internal/domain"
	"posterlab/internal/infra"
	"posterlab/internal/sqlinline"
)

const (
	primaryFetchLimit  = 20
	fallbackFetchLimit = 15
	topPickCount       = 5

	domainMatchBonus     = 10
	briefWordBonus       = 2
	richDescriptionBonus = 3
	richDescriptionLen   = 20
)

// Selector picks a stored poster design for briefs that arrive without a
// reference image. Scoring is deterministic; only the final pick among the
// top scorers is randomized, to avoid serving the same template to every
// similar brief. One Selector serves all request goroutines, so the rand
// source is guarded.
type Selector struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSelector(sql infra.SQLExecutor, logger zerolog.Logger) *Selector {
	return &Selector{
		sql:    sql,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Selector) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Select returns the chosen template for the brief. A known domain hint
// overrides keyword detection; unknown hints are ignored. It fails with
// NoTemplateAvailable when the candidate pool stays empty after the fallback
// chain; callers proceed without a reference image in that case.
func (s *Selector) Select(ctx context.Context, brief, hint string) (domain.TemplateCandidate, error) {
	primary, score := DetectDomain(brief)
	if hint = strings.ToLower(strings.TrimSpace(hint)); hint != "" && KnownDomain(hint) {
		primary, score = hint, 1
	}

	var candidates []domain.TemplateCandidate
	if score > 0 {
		fetched, err := s.fetchCandidates(ctx, primary, primaryFetchLimit)
		if err != nil {
			return domain.TemplateCandidate{}, err
		}
		candidates = fetched
	}
	if len(candidates) == 0 {
		for _, fb := range fallbackDomains {
			fetched, err := s.fetchCandidates(ctx, fb, fallbackFetchLimit)
			if err != nil {
				return domain.TemplateCandidate{}, err
			}
			candidates = append(candidates, fetched...)
			if len(candidates) > 0 {
				if primary == "" {
					primary = fb
				}
				break
			}
		}
	}
	if len(candidates) == 0 {
		return domain.TemplateCandidate{}, domain.Errorf(domain.KindNoTemplateAvailable, "no template for domain %q", primary)
	}

	ranked := rankCandidates(candidates, primary, brief)
	top := ranked
	if len(top) > topPickCount {
		top = top[:topPickCount]
	}
	picked := top[s.pick(len(top))]
	s.logger.Debug().
		Str("domain", primary).
		Str("template", picked.StoragePath).
		Int("pool", len(candidates)).
		Msg("templates: selected")
	return picked, nil
}

func (s *Selector) fetchCandidates(ctx context.Context, domainTag string, limit int) ([]domain.TemplateCandidate, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectTemplatesByDomain, domainTag, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TemplateCandidate
	for rows.Next() {
		var c domain.TemplateCandidate
		if err := rows.Scan(&c.StoragePath, &c.Domain, &c.Description, &c.Tags); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// rankCandidates orders candidates by relevance to the brief, best first.
// The sort is stable so equal scores keep fetch order.
func rankCandidates(candidates []domain.TemplateCandidate, primary, brief string) []domain.TemplateCandidate {
	type scored struct {
		candidate domain.TemplateCandidate
		score     int
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{candidate: c, score: scoreCandidate(c, primary, brief)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]domain.TemplateCandidate, len(ranked))
	for i, r := range ranked {
		out[i] = r.candidate
	}
	return out
}

func scoreCandidate(c domain.TemplateCandidate, primary, brief string) int {
	score := 0
	if c.Domain == primary {
		score += domainMatchBonus
	}
	haystack := strings.ToLower(c.Description + " " + strings.Join(c.Tags, " "))
	for _, word := range strings.Fields(strings.ToLower(brief)) {
		if utf8.RuneCountInString(word) <= 4 {
			continue
		}
		if strings.Contains(haystack, word) {
			score += briefWordBonus
		}
	}
	if utf8.RuneCountInString(c.Description) > richDescriptionLen {
		score += richDescriptionBonus
	}
	return score
}
