package chess

import (
	"errors"
	"math/rand"
)

// Candidate is a book move offered to the sampler.
type Candidate struct {
	Move   string
	Weight int
	Forced bool
}

// SelectCandidate samples one of the first p.PrimaryChoices candidates.
// Each slot's chance is its CandidateWeights entry scaled by the candidate's
// own book weight. A forced candidate inside the primary window wins outright.
func SelectCandidate(p DifficultyPreset, candidates []Candidate, r *rand.Rand) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, errors.New("no candidates to choose from")
	}
	if err := ValidatePreset(p); err != nil {
		return Candidate{}, err
	}

	primaryLimit := p.PrimaryChoices
	if primaryLimit > len(candidates) {
		primaryLimit = len(candidates)
	}

	for i := 0; i < primaryLimit; i++ {
		if candidates[i].Forced {
			return candidates[i], nil
		}
	}

	weights := make([]float64, primaryLimit)
	totalWeight := 0.0
	for i := 0; i < primaryLimit; i++ {
		w := candidates[i].Weight
		if w < 1 {
			w = 1
		}
		weights[i] = p.CandidateWeights[i] * float64(w)
		totalWeight += weights[i]
	}
	if totalWeight == 0 {
		return Candidate{}, errors.New("candidate weights sum to zero")
	}

	threshold := r.Float64() * totalWeight
	index := primaryLimit - 1
	for i := 0; i < primaryLimit; i++ {
		if threshold < weights[i] {
			index = i
			break
		}
		threshold -= weights[i]
	}
	return candidates[index], nil
}
