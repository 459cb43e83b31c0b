package voucher

// DocStatus is the submission state of a document. Draft documents are
// editable and invisible to the ledger; submitted documents are immutable;
// cancelled documents stay on record with their ledger effects reversed.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// IsValid checks if the status is a valid DocStatus
func (s DocStatus) IsValid() bool {
	switch s {
	case DocStatusDraft, DocStatusSubmitted, DocStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of DocStatus
func (s DocStatus) String() string {
	switch s {
	case DocStatusDraft:
		return "DRAFT"
	case DocStatusSubmitted:
		return "SUBMITTED"
	case DocStatusCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// CanTransitionTo enforces the one-way submission lifecycle
func (s DocStatus) CanTransitionTo(target DocStatus) bool {
	switch s {
	case DocStatusDraft:
		return target == DocStatusSubmitted
	case DocStatusSubmitted:
		return target == DocStatusCancelled
	}
	return false
}
