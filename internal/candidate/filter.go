package candidate

import "sort"

func FilterCandidates(candidates []Candidate, query string) []FilteredCandidate {
	q := TrimRunes(query)
	return FilterCandidatesWithQueryRunes(candidates, q, LowerRunes(q))
}

func FilterCandidatesWithQueryRunes(candidates []Candidate, qRaw []rune, qLower []rune) []FilteredCandidate {
	if len(qLower) == 0 {
		out := make([]FilteredCandidate, len(candidates))
		for i := range candidates {
			out[i] = FilteredCandidate{Index: int32(i), Score: int32(candidateSemanticScore(&candidates[i]))}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
		return out
	}

	caseSensitive := len(qRaw) == len(qLower)
	out := make([]FilteredCandidate, 0, len(candidates)/4)
	for i := range candidates {
		item, ok := scoreCandidate(&candidates[i], int32(i), qRaw, qLower, caseSensitive)
		if !ok {
			continue
		}
		out = append(out, item)
	}

	sort.Slice(out, func(i, j int) bool {
		return lessFilteredCandidate(candidates, out[i], out[j])
	})
	return out
}

func lessFilteredCandidate(candidates []Candidate, left FilteredCandidate, right FilteredCandidate) bool {
	if left.Score != right.Score {
		return left.Score > right.Score
	}

	leftCand := candidates[int(left.Index)]
	rightCand := candidates[int(right.Index)]
	if leftCand.Key != rightCand.Key {
		return leftCand.Key < rightCand.Key
	}
	return leftCand.ID < rightCand.ID
}

func scoreCandidate(cand *Candidate, index int32, qRaw []rune, qLower []rune, caseSensitive bool) (FilteredCandidate, bool) {
	keyScore, keyOK := fuzzyScore(cand.Key, qRaw, qLower, caseSensitive)
	textScore, textOK := fuzzyScore(cand.Text, qRaw, qLower, caseSensitive)
	pathScore, pathOK := fuzzyScore(cand.File, qRaw, qLower, caseSensitive)

	if !keyOK && !textOK && !pathOK {
		return FilteredCandidate{}, false
	}

	score := int32(-1 << 20)
	if keyOK {
		score = maxInt32(score, int32(3000+keyScore*3))
	}
	if textOK {
		score = maxInt32(score, int32(1800+textScore*2-60))
	}
	if pathOK {
		score = maxInt32(score, int32(1200+pathScore-120))
	}

	if keyOK && textOK {
		score += 80
	}

	score += int32(candidateSemanticScore(cand))

	return FilteredCandidate{Index: index, Score: score}, true
}

func maxInt32(a int32, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
