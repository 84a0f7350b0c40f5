// Package confidence turns raw equality-method results into a single score
// and a three-way merge decision.
package confidence

import (
	"fmt"
	"strings"

	"github.com/agenthands/mosaic/internal/core/match"
	"github.com/agenthands/mosaic/internal/core/model"
)

// Weights holds the decision thresholds and the data-quality modifier
// magnitudes. The modifier constants are hand-tuned; they live here rather
// than as literals so they can be adjusted per deployment.
type Weights struct {
	AutoMergeThreshold  float64
	AutoRejectThreshold float64
	RichnessBonus       float64
	SparsityPenalty     float64
	GenericityPenalty   float64
}

func DefaultWeights() Weights {
	return Weights{
		AutoMergeThreshold:  0.9,
		AutoRejectThreshold: 0.3,
		RichnessBonus:       0.1,
		SparsityPenalty:     0.2,
		GenericityPenalty:   0.15,
	}
}

// MethodScore records one equality method that fired.
type MethodScore struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Result is the scored comparison of one candidate/existing pair.
type Result struct {
	Confidence float64       `json:"confidence"`
	Fired      []MethodScore `json:"fired"`
}

type Scorer struct {
	Weights Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{Weights: w}
}

// Score runs every equality method the matcher declares and combines the
// ones that fired into a weighted average, then applies the data-quality
// modifiers and clamps to [0,1]. No method firing means confidence 0.
func (s *Scorer) Score(matcher match.Matcher, a, b map[string]interface{}) Result {
	var fired []MethodScore
	var weightedSum, weightTotal float64

	for _, method := range matcher.EqualityMethods() {
		ok, score := match.EvalMethod(method, a, b)
		if !ok {
			continue
		}
		if method.Exact {
			score = 1.0
		}
		fired = append(fired, MethodScore{ID: method.ID, Score: score, Weight: method.Weight})
		weightedSum += score * method.Weight
		weightTotal += method.Weight
	}

	if weightTotal == 0 {
		return Result{Confidence: 0, Fired: nil}
	}

	confidence := weightedSum / weightTotal
	confidence += s.modifiers(a, b)

	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return Result{Confidence: confidence, Fired: fired}
}

func (s *Scorer) modifiers(a, b map[string]interface{}) float64 {
	var delta float64

	countA, countB := identifyingFieldCount(a), identifyingFieldCount(b)
	if countA >= 3 && countB >= 3 {
		delta += s.Weights.RichnessBonus
	}
	if countA <= 1 || countB <= 1 {
		delta -= s.Weights.SparsityPenalty
	}
	if match.HasGenericName(a) || match.HasGenericName(b) {
		delta -= s.Weights.GenericityPenalty
	}

	return delta
}

// identifyingFieldCount counts populated non-structural properties.
func identifyingFieldCount(props map[string]interface{}) int {
	count := 0
	for key, v := range props {
		if key == "id" || key == "embedding" || key == "created_at" || key == "updated_at" {
			continue
		}
		switch val := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(val) != "" {
				count++
			}
		case []interface{}:
			if len(val) > 0 {
				count++
			}
		default:
			count++
		}
	}
	return count
}

// Decide maps a confidence score onto the three-way outcome. Boundaries are
// inclusive: exactly 0.9 merges, exactly 0.3 rejects.
func (s *Scorer) Decide(score float64) model.MatchDecision {
	switch {
	case score >= s.Weights.AutoMergeThreshold:
		return model.MatchDecision{
			Score:  score,
			Action: model.ActionAutoMerge,
			Reason: fmt.Sprintf("confidence %.2f >= %.2f", score, s.Weights.AutoMergeThreshold),
		}
	case score <= s.Weights.AutoRejectThreshold:
		return model.MatchDecision{
			Score:  score,
			Action: model.ActionAutoReject,
			Reason: fmt.Sprintf("confidence %.2f <= %.2f", score, s.Weights.AutoRejectThreshold),
		}
	default:
		return model.MatchDecision{
			Score:  score,
			Action: model.ActionHumanReview,
			Reason: fmt.Sprintf("confidence %.2f is ambiguous", score),
		}
	}
}
