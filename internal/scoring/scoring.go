// Package scoring normalises multi-dimensional round outcomes and produces
// a ranked leaderboard.
package scoring

import (
	"math"
	"sort"

	"ageing-engine/internal/model"
)

// DimensionDirections gives the sign adjustment per dimension before
// normalising: cost is "lower is better" so it is negated.
var DimensionDirections = map[string]float64{
	model.DimHealth:   1,
	model.DimCost:     -1,
	model.DimCapacity: 1,
	model.DimEquity:   1,
}

// ScoreRound normalises each configured dimension across the input rows,
// computes the weighted total and ranks rows by total score descending.
// Ties keep the stable sort order; rank is the 1-based position.
func ScoreRound(rows []model.TeamMetrics, cfg model.ScoringConfig) []model.ScoredRow {
	if len(rows) == 0 {
		return nil
	}

	dims := make([]string, 0, len(cfg.Weights))
	for dim := range cfg.Weights {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	scored := make([]model.ScoredRow, len(rows))
	for i, row := range rows {
		scored[i] = model.ScoredRow{
			Team:   row.Team,
			Values: make(map[string]float64, len(dims)),
			Scores: make(map[string]float64, len(dims)),
		}
	}

	for _, dim := range dims {
		direction, ok := DimensionDirections[dim]
		if !ok {
			direction = 1
		}
		values := make([]float64, len(rows))
		for i, row := range rows {
			scored[i].Values[dim] = row.Value(dim)
			values[i] = row.Value(dim) * direction
		}
		normalised := normalise(values, cfg.Normalisation)
		for i, v := range normalised {
			scored[i].Scores[dim] = v
		}
	}

	for i := range scored {
		total := 0.0
		for _, dim := range dims {
			total += scored[i].Scores[dim] * cfg.Weights[dim]
		}
		scored[i].TotalScore = total
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].TotalScore > scored[b].TotalScore
	})
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}

const degenerateEps = 1e-12

// normalise applies z-score (population standard deviation) or min-max.
// A degenerate spread yields zero for every row rather than an error.
func normalise(values []float64, method string) []float64 {
	out := make([]float64, len(values))
	if method == model.NormZScore {
		mean := 0.0
		for _, v := range values {
			mean += v
		}
		mean /= float64(len(values))
		variance := 0.0
		for _, v := range values {
			variance += (v - mean) * (v - mean)
		}
		std := math.Sqrt(variance / float64(len(values)))
		if std <= degenerateEps {
			return out
		}
		for i, v := range values {
			out[i] = (v - mean) / std
		}
		return out
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if maxV-minV <= degenerateEps {
		return out
	}
	for i, v := range values {
		out[i] = (v - minV) / (maxV - minV)
	}
	return out
}
