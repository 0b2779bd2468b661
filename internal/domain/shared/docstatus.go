package shared

// DocStatus is the ERP document lifecycle flag shared by orders and delivery notes.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// IsValid checks if the value is one of the three known document states
func (s DocStatus) IsValid() bool {
	return s >= DocStatusDraft && s <= DocStatusCancelled
}

// IsOpen reports whether the document is draft or submitted (docstatus <= 1)
func (s DocStatus) IsOpen() bool {
	return s == DocStatusDraft || s == DocStatusSubmitted
}

// String returns a readable name
func (s DocStatus) String() string {
	switch s {
	case DocStatusDraft:
		return "draft"
	case DocStatusSubmitted:
		return "submitted"
	case DocStatusCancelled:
		return "cancelled"
	}
	return "unknown"
}
