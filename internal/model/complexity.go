package model

// Complexity level thresholds on OverallScore.
const (
	LevelLowMax    = 10
	LevelMediumMax = 20
	LevelHighMax   = 50
)

// Overall-score weights and soft limits.
const (
	cyclomaticWeight = 2
	nestingSoftLimit = 3
	paramSoftLimit   = 5
)

type ComplexityLevel string

const (
	LevelLow      ComplexityLevel = "low"
	LevelMedium   ComplexityLevel = "medium"
	LevelHigh     ComplexityLevel = "high"
	LevelVeryHigh ComplexityLevel = "very_high"
)

// HalsteadMetrics are token-based counts over an element's sub-tree.
// Operator/operand identity is the literal token text, not semantic value.
type HalsteadMetrics struct {
	DistinctOperators int `json:"distinct_operators"`
	DistinctOperands  int `json:"distinct_operands"`
	TotalOperators    int `json:"total_operators"`
	TotalOperands     int `json:"total_operands"`
	Vocabulary        int `json:"vocabulary"`
	Length            int `json:"length"`
}

// ComplexityMetrics scores one element. Cyclomatic and cognitive are
// at least 1 for any function-like element.
type ComplexityMetrics struct {
	Cyclomatic     int             `json:"cyclomatic"`
	Cognitive      int             `json:"cognitive"`
	Halstead       HalsteadMetrics `json:"halstead"`
	NestingDepth   int             `json:"nesting_depth"`
	LinesOfCode    int             `json:"lines_of_code"`
	ParameterCount int             `json:"parameter_count"`
	ReturnCount    int             `json:"return_count"`
}

// OverallScore combines the metrics into a single ranking value:
// cyclomatic doubled, plus cognitive, plus one point per nesting level
// past 3 and one per parameter past 5. Never below 1.
func (m ComplexityMetrics) OverallScore() int {
	score := m.Cyclomatic*cyclomaticWeight + m.Cognitive
	if m.NestingDepth > nestingSoftLimit {
		score += m.NestingDepth - nestingSoftLimit
	}
	if m.ParameterCount > paramSoftLimit {
		score += m.ParameterCount - paramSoftLimit
	}
	if score < 1 {
		score = 1
	}
	return score
}

// Level classifies the overall score against the fixed thresholds.
func (m ComplexityMetrics) Level() ComplexityLevel {
	return LevelForScore(m.OverallScore())
}

func LevelForScore(score int) ComplexityLevel {
	switch {
	case score < LevelLowMax:
		return LevelLow
	case score < LevelMediumMax:
		return LevelMedium
	case score < LevelHighMax:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}
