package models

// Status is the card's position in the application workflow.
type Status string

const (
	StatusToApply    Status = "TO_APPLY"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// Valid reports whether s is a member of the closed status enumeration.
func (s Status) Valid() bool {
	switch s {
	case StatusToApply, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Card is a single tracked job application. It is stored wholesale as a JSON
// document keyed by (ownerId, id); optional fields are omitted from the
// document when empty, so a full-document update drops them.
type Card struct {
	ID          string `json:"id"`
	OwnerID     string `json:"ownerId"`
	Company     string `json:"company"`
	Role        string `json:"role"`
	URL         string `json:"url"`
	Status      Status `json:"status"`
	Location    string `json:"location,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	CompanyLogo string `json:"companyLogo,omitempty"`
}
