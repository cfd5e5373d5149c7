package matcher

import "sort"

// Scored is a candidate bag with its score.
type Scored struct {
	Bag   Bag
	Score float64

	index int
}

// ComputeSimilarityScore returns the best token-overlap similarity between
// any spelling of lhs and any spelling of rhs:
//
//	0.5 * (overlap/|lhs spelling| + overlap/|rhs spelling|)
//
// It returns -1 when either bag is empty.
func ComputeSimilarityScore(lhs, rhs Bag) float64 {
	best := -1.0
	for _, l := range lhs.names {
		for _, r := range rhs.names {
			overlap := 0.0
			for _, token := range l {
				if containsToken(r, token) {
					overlap++
				}
			}
			score := 0.5 * (overlap/float64(len(l)) + overlap/float64(len(r)))
			if score > best {
				best = score
			}
		}
	}
	return best
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

// FindNearestMatchesWithin scores every candidate against query and keeps
// those scoring at least threshold, best first. Nothing is kept when the
// best score is not positive.
func FindNearestMatchesWithin(query Bag, candidates []Bag, threshold float64) []Scored {
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{Bag: c, Score: ComputeSimilarityScore(query, c), index: i}
	}
	sortByScore(scored)

	if len(scored) == 0 || scored[0].Score <= 0 {
		return nil
	}

	var selected []Scored
	for _, s := range scored {
		if s.Score >= threshold {
			selected = append(selected, s)
		}
	}
	return selected
}

// SelectPercentageOfMax keeps the options scoring strictly above
// percentageOfMax times the best score, best first. Fewer than two options
// are returned unchanged.
func SelectPercentageOfMax(options []Scored, percentageOfMax float64) []Scored {
	if len(options) < 2 {
		return options
	}

	sorted := append([]Scored(nil), options...)
	sortByScore(sorted)

	cutoff := sorted[0].Score * percentageOfMax
	var selected []Scored
	for _, s := range sorted {
		if s.Score <= cutoff {
			break
		}
		selected = append(selected, s)
	}
	return selected
}

// DisambiguateAntonyms narrows candidates that matched query similarly, such
// as "increase" and "decrease". Each candidate bag is a document; candidates
// are scored by the mean binary TF-IDF of the query tokens, those above
// threshold are cut to percentageOfMax of the best. With useCoverage the
// survivors are rescored by the share of their unique tokens the query
// covers and cut again.
func DisambiguateAntonyms(query Bag, candidates []Bag, threshold, percentageOfMax float64, useCoverage bool) []Bag {
	selected := disambiguateAntonyms(query, candidates, threshold, percentageOfMax, useCoverage)
	out := make([]Bag, len(selected))
	for i, s := range selected {
		out[i] = s.Bag
	}
	return out
}

func disambiguateAntonyms(query Bag, candidates []Bag, threshold, percentageOfMax float64, useCoverage bool) []Scored {
	if query.Empty() {
		return nil
	}

	docFreq := make(map[string]int)
	for _, c := range candidates {
		for _, token := range c.uniqueTokens() {
			docFreq[token]++
		}
	}

	coverage := make([]float64, len(candidates))
	var tfidf []Scored
	for i, c := range candidates {
		matched := make(map[string]bool)
		sum := 0.0
		for _, token := range query.tokens {
			if c.contains(token) {
				matched[token] = true
				sum += 1.0 / float64(docFreq[token])
			}
		}
		mean := sum / float64(len(query.tokens))

		if unique := len(c.uniqueTokens()); unique > 0 {
			coverage[i] = float64(len(matched)) / float64(unique)
		}
		if mean > threshold {
			tfidf = append(tfidf, Scored{Bag: c, Score: mean, index: i})
		}
	}

	selected := SelectPercentageOfMax(tfidf, percentageOfMax)
	if !useCoverage {
		return selected
	}

	rescored := make([]Scored, len(selected))
	for i, s := range selected {
		rescored[i] = Scored{Bag: s.Bag, Score: coverage[s.index], index: s.index}
	}
	return SelectPercentageOfMax(rescored, percentageOfMax)
}

func sortByScore(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Score > s[j].Score
	})
}
