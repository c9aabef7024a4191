package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusPending    ComplaintStatus = "Pending"
	ComplaintStatusInProgress ComplaintStatus = "In Progress"
	ComplaintStatusResolved   ComplaintStatus = "Resolved"
)

// Complaint is the aggregate for citizen grievances. The id is assigned
// before the first store write so the notification body and the persisted
// record always agree.
type Complaint struct {
	ID               string          `bson:"_id" json:"id"`
	OwnerID          string          `bson:"ownerId" json:"owner_id"`
	Description      string          `bson:"description" json:"description"`
	Cause            string          `bson:"cause" json:"cause"`
	Impact           string          `bson:"impact" json:"impact"`
	Location         string          `bson:"location,omitempty" json:"location,omitempty"`
	ProofImageURL    string          `bson:"proofImageUrl" json:"proof_image_url"`
	Status           ComplaintStatus `bson:"status" json:"status"`
	NotificationBody string          `bson:"notificationBody" json:"-"`
	ClassifiedIntent string          `bson:"classifiedIntent" json:"classified_intent"`
	DepartmentEmail  string          `bson:"departmentEmail" json:"department_email"`
	DepartmentName   string          `bson:"departmentName" json:"department_name"`
	CreatedAt        time.Time       `bson:"createdAt" json:"created_at"`
	UpdatedAt        time.Time       `bson:"updatedAt" json:"updated_at"`
}
