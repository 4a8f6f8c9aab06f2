package enums

import "fmt"

// FraudProbability is the advisory hook's overall fraud estimate.
// "unknown" is reserved for degraded (failed) advisory calls.
type FraudProbability string

const (
	FraudProbabilityLow     FraudProbability = "low"
	FraudProbabilityMedium  FraudProbability = "medium"
	FraudProbabilityHigh    FraudProbability = "high"
	FraudProbabilityUnknown FraudProbability = "unknown"
)

var validFraudProbabilities = []FraudProbability{
	FraudProbabilityLow,
	FraudProbabilityMedium,
	FraudProbabilityHigh,
	FraudProbabilityUnknown,
}

// IsValid reports whether the value matches a canonical fraud probability.
func (p FraudProbability) IsValid() bool {
	for _, candidate := range validFraudProbabilities {
		if candidate == p {
			return true
		}
	}
	return false
}

// RecommendedAction is the advisory hook's suggested disposition.
type RecommendedAction string

const (
	ActionApprove RecommendedAction = "approve"
	ActionReview  RecommendedAction = "review"
	ActionReject  RecommendedAction = "reject"
)

var validRecommendedActions = []RecommendedAction{
	ActionApprove,
	ActionReview,
	ActionReject,
}

// IsValid reports whether the value matches a canonical recommended action.
func (a RecommendedAction) IsValid() bool {
	for _, candidate := range validRecommendedActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseRecommendedAction converts raw input into RecommendedAction.
func ParseRecommendedAction(value string) (RecommendedAction, error) {
	for _, candidate := range validRecommendedActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recommended action %q", value)
}
