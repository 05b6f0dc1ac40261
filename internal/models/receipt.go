package models

import "time"

// RequestStatus values are persisted verbatim, including the historical spellings.
type RequestStatus string

const (
	StatusPending        RequestStatus = "PENDING"
	StatusApproved       RequestStatus = "APPROVED"
	StatusWaitingOutside RequestStatus = "WAITING_OUTSIDE"
	StatusDelivered      RequestStatus = "DELIVERD"
	StatusCancelled      RequestStatus = "CANCELD"
	StatusFastRequest    RequestStatus = "FAST_REQUEST"
)

// Valid reports whether s is a known status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusWaitingOutside, StatusDelivered, StatusCancelled, StatusFastRequest:
		return true
	}
	return false
}

// Terminal reports whether no further transition is expected.
func (s RequestStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type HowToReceive string

const (
	ReceiveByCar    HowToReceive = "CAR"
	ReceiveInPerson HowToReceive = "PERSON"
)

func (h HowToReceive) Valid() bool {
	return h == ReceiveByCar || h == ReceiveInPerson
}

type DeliveryPersonType string

const (
	DeliveredByParent         DeliveryPersonType = "PARENT"
	DeliveredByDeliveryPerson DeliveryPersonType = "DELIVERY_PERSON"
)

// ReceiptRequest is a request to pick a student up from school.
type ReceiptRequest struct {
	ID                 int64              `db:"id" json:"id"`
	StudentID          int64              `db:"student_id" json:"studentId"`
	Date               time.Time          `db:"date" json:"date"`
	RequestReason      *string            `db:"request_reason" json:"requestReason"`
	HowToReceive       HowToReceive       `db:"how_to_receive" json:"howToReceive"`
	DeliveryPersonType DeliveryPersonType `db:"delivery_person_type" json:"deliveryPersonType"`
	NumberOfCar        *string            `db:"number_of_car" json:"numberOfCar"`
	Location           *string            `db:"location" json:"location"`
	DeliveryID         *int64             `db:"delivery_id" json:"deliveryId"`
	Status             RequestStatus      `db:"status" json:"status"`
	CancellationReason *string            `db:"cancellation_reason" json:"cancellationReason"`
	CancelledAt        *time.Time         `db:"cancelled_at" json:"cancelledAt"`
	ReminderCount      int                `db:"reminder_count" json:"reminderCount"`
	CreatedAt          time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updatedAt"`
	DeletedAt          *time.Time         `db:"deleted_at" json:"-"`
}

// ReceiptRequestView is the formatted representation returned to callers.
type ReceiptRequestView struct {
	ID                 int64               `json:"id"`
	Date               time.Time           `json:"date"`
	HowToReceive       HowToReceive        `json:"howToReceive"`
	NumberOfCar        *string             `json:"numberOfCar"`
	Location           *string             `json:"location"`
	Status             RequestStatus       `json:"status"`
	Student            StudentView         `json:"student"`
	DeliveryPerson     *DeliveryPersonView `json:"deliveryPerson"`
	CancellationReason *string             `json:"cancellationReason"`
	CancelledAt        *time.Time          `json:"cancelledAt"`
	RequestReason      *string             `json:"requestReason"`
	ReminderCount      int                 `json:"reminderCount"`
}

type StudentView struct {
	ID           int64       `json:"id"`
	FullName     string      `json:"fullName"`
	ProfileImage *string     `json:"profileImage"`
	Code         *string     `json:"code"`
	Class        *string     `json:"class"`
	Stage        *string     `json:"stage"`
	School       SchoolView  `json:"school"`
	Parent       *ParentView `json:"parent"`
}

// SchoolView carries UserID, the id of the school's admin user, when one exists.
type SchoolView struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Logo   *string `json:"logo"`
	UserID *int64  `json:"userId"`
}

type ParentView struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	UserID   *int64 `json:"userId"`
}

type DeliveryPersonView struct {
	ID           int64            `json:"id"`
	FullName     string           `json:"fullName"`
	ProfileImage *string          `json:"profileImage"`
	User         DeliveryUserView `json:"user"`
}

type DeliveryUserView struct {
	ID          int64   `json:"id"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
}

// StudentSummary is the reduced student shape used when no pending request exists.
type StudentSummary struct {
	ID           int64   `db:"id" json:"id"`
	FullName     string  `db:"full_name" json:"fullName"`
	ProfileImage *string `db:"profile_image" json:"profileImage"`
	Class        *string `db:"class" json:"class"`
	Stage        *string `db:"stage" json:"stage"`
}

// FastRequestState answers "is a request currently open for me?".
// Data is a *ReceiptRequestView when IsRequestAvailable is true, a
// *StudentSummary of the latest request when an older one exists, and nil otherwise.
type FastRequestState struct {
	IsRequestAvailable bool        `json:"isRequestAvailable"`
	Data               interface{} `json:"data"`
}

// RequestScope restricts receipt queries to what an actor may see.
// Zero fields are not applied.
type RequestScope struct {
	ParentID         int64
	SchoolID         int64
	StudentID        int64
	DeliveryPersonID int64
}

// ScopeFor derives the listing scope of an actor from its role.
// Roles without a rule (ADMIN, empty) are unrestricted.
func ScopeFor(a Actor) RequestScope {
	switch a.Role {
	case RoleParent:
		return RequestScope{ParentID: nonZero(a.ParentID)}
	case RoleSchool:
		return RequestScope{SchoolID: nonZero(a.SchoolID)}
	case RoleDeliveryPerson:
		return RequestScope{DeliveryPersonID: nonZero(a.DeliveryPersonID)}
	case RoleStudent:
		return RequestScope{StudentID: nonZero(a.StudentID)}
	}
	return RequestScope{}
}

// nonZero maps an unlinked id to -1 so a scoped role never falls back to
// an unrestricted query.
func nonZero(id int64) int64 {
	if id == 0 {
		return -1
	}
	return id
}

// ReceiptFilter holds the optional listing filters.
type ReceiptFilter struct {
	Scope        RequestScope
	Keyword      string
	StudentID    int64
	DeliveryID   int64
	HowToReceive HowToReceive
	Status       RequestStatus
	From         *time.Time
	To           *time.Time
}
