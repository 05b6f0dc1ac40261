package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleParent         Role = "PARENT"
	RoleSchool         Role = "SCHOOL"
	RoleDeliveryPerson Role = "DELIVERY_PERSON"
	RoleStudent        Role = "STUDENT"
	RoleAdmin          Role = "ADMIN"
)

type SchoolStatus string

const (
	SchoolActive   SchoolStatus = "ACTIVE"
	SchoolInactive SchoolStatus = "INACTIVE"
	SchoolPending  SchoolStatus = "PENDING"
)

// Actor is the user performing an operation. Zero ids mean "not linked".
type Actor struct {
	UserID           int64 `json:"userId"`
	Role             Role  `json:"role"`
	SchoolID         int64 `json:"schoolId,omitempty"`
	ParentID         int64 `json:"parentId,omitempty"`
	StudentID        int64 `json:"studentId,omitempty"`
	DeliveryPersonID int64 `json:"deliveryPersonId,omitempty"`
}

func (a Actor) IsSchool() bool { return a.Role == RoleSchool }

type School struct {
	ID         int64        `db:"id" json:"id"`
	Name       string       `db:"name" json:"name"`
	Logo       *string      `db:"logo" json:"logo"`
	Status     SchoolStatus `db:"status" json:"status"`
	ClosedTime *string      `db:"closed_time" json:"closedTime"`
}

// Student is loaded together with its school.
type Student struct {
	ID           int64   `db:"id" json:"id"`
	FullName     string  `db:"full_name" json:"fullName"`
	ProfileImage *string `db:"profile_image" json:"profileImage"`
	Code         *string `db:"code" json:"code"`
	Class        *string `db:"class" json:"class"`
	Stage        *string `db:"stage" json:"stage"`
	SchoolID     int64   `db:"school_id" json:"schoolId"`
	ParentID     *int64  `db:"parent_id" json:"parentId"`
	School       School  `db:"school" json:"school"`
}

// HasParent reports whether the student belongs to the given parent id.
func (s *Student) HasParent(parentID int64) bool {
	return parentID != 0 && s.ParentID != nil && *s.ParentID == parentID
}

type DeliveryPerson struct {
	ID       int64  `db:"id" json:"id"`
	FullName string `db:"full_name" json:"fullName"`
}

// User is the account row consulted for notification targeting.
type User struct {
	ID          int64     `db:"id" json:"id"`
	Email       *string   `db:"email" json:"email"`
	PhoneNumber *string   `db:"phone_number" json:"phoneNumber"`
	Role        Role      `db:"role" json:"role"`
	SchoolID    *int64    `db:"school_id" json:"schoolId"`
	PlayerIDs   PlayerIDs `db:"player_ids" json:"playerIds"`
}

// MaxPlayerIDs is how many device registrations are kept per user.
const MaxPlayerIDs = 3

// PlayerIDs are push device registrations, newest first, stored as jsonb.
type PlayerIDs []string

func (p PlayerIDs) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal([]string(p))
}

func (p *PlayerIDs) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("player ids: unsupported type %T", src)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return err
	}
	*p = ids
	return nil
}

// Register moves id to the front, dropping duplicates and anything past MaxPlayerIDs.
func (p PlayerIDs) Register(id string) PlayerIDs {
	out := PlayerIDs{id}
	for _, existing := range p {
		if existing != id && len(out) < MaxPlayerIDs {
			out = append(out, existing)
		}
	}
	return out
}
