package backtest

import "math"

// ComputeSummary folds the per-step records into the run-level activity
// summary: decision and grade distributions plus score statistics over
// steps that actually produced a top setup.
func ComputeSummary(steps []StepRecord) Summary {
	s := Summary{
		TotalSteps:     len(steps),
		DecisionCounts: map[string]int{},
		GradeCounts:    map[string]int{},
		MinScoreTotal:  math.NaN(),
		MaxScoreTotal:  math.NaN(),
	}
	scoreSum := 0.0
	confSum := 0.0
	for _, st := range steps {
		if !st.HasTopSetup {
			continue
		}
		s.StepsWithTopSetup++
		s.DecisionCounts[string(st.Decision)]++
		s.GradeCounts[string(st.Grade)]++
		scoreSum += st.ScoreTotal
		confSum += st.Confidence
		if math.IsNaN(s.MinScoreTotal) || st.ScoreTotal < s.MinScoreTotal {
			s.MinScoreTotal = st.ScoreTotal
		}
		if math.IsNaN(s.MaxScoreTotal) || st.ScoreTotal > s.MaxScoreTotal {
			s.MaxScoreTotal = st.ScoreTotal
		}
	}
	if s.StepsWithTopSetup > 0 {
		s.AvgScoreTotal = scoreSum / float64(s.StepsWithTopSetup)
		s.AvgConfidence = confSum / float64(s.StepsWithTopSetup)
	} else {
		s.MinScoreTotal = 0
		s.MaxScoreTotal = 0
	}
	return s
}
