package store

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SuggestUsers returns the stored user ids that look like userID, closest first.  It is used to
// point out a likely typo when no token exists for userID.
func (s *TokenStore) SuggestUsers(userID string) []string {
	return suggest(userID, s.Users())
}

func suggest(query string, candidates []string) []string {
	if query == "" {
		return nil
	}

	// Either the query is an abbreviation of a stored id, or a stored id is contained in the query
	ranks := fuzzy.RankFindNormalizedFold(query, candidates)
	for _, candidate := range candidates {
		if candidate != "" && fuzzy.MatchNormalizedFold(candidate, query) {
			ranks = append(ranks, fuzzy.Rank{
				Source:   candidate,
				Target:   candidate,
				Distance: fuzzy.LevenshteinDistance(query, candidate),
			})
		}
	}
	sort.Stable(ranks)

	seen := make(map[string]bool)
	var out []string
	for _, r := range ranks {
		if r.Target == query || seen[r.Target] {
			continue
		}
		seen[r.Target] = true
		out = append(out, r.Target)
	}
	return out
}
