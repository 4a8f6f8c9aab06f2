package enums

import "fmt"

// Status is the lifecycle state of an invoice record.
type Status string

const (
	StatusPending       Status = "pending"
	StatusApproved      Status = "approved"
	StatusRejected      Status = "rejected"
	StatusPendingReview Status = "pending_review"
	StatusPaid          Status = "paid"
)

var validStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusPendingReview,
	StatusPaid,
}

// IsValid reports whether the value matches a canonical invoice status.
func (s Status) IsValid() bool {
	for _, candidate := range validStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStatus converts raw input into Status.
func ParseStatus(value string) (Status, error) {
	for _, candidate := range validStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}
