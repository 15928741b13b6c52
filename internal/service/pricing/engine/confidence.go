package engine

import (
	"math"

	"pricewise/internal/service/pricing/domain"
)

const (
	BaseConfidence = 0.85
	MinConfidence  = 0.5
	MaxConfidence  = 0.95
)

// RuleConfidence 是不依赖外部 oracle 的确定性置信度。
// 调整幅度越大、库存越紧张，置信度越低。
func RuleConfidence(adj domain.AdjustmentSet, inventoryRatio float64) float64 {
	confidence := BaseConfidence
	magnitude := adj.AbsSum()
	if magnitude > 0.5 {
		confidence -= 0.15
	}
	if magnitude > 0.3 {
		confidence -= 0.10
	}
	if inventoryRatio < 0.1 {
		confidence -= 0.10
	}
	return ClampConfidence(confidence)
}

// ClampConfidence 把置信度限制在 [MinConfidence, MaxConfidence]，并消除浮点尾差。
func ClampConfidence(v float64) float64 {
	v = math.Round(v*1e4) / 1e4
	if v < MinConfidence {
		return MinConfidence
	}
	if v > MaxConfidence {
		return MaxConfidence
	}
	return v
}
