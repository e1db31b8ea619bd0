package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("unsupported type for JSONB scan")
	}
}

type StringList []string

func (a StringList) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *StringList) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("unsupported type for StringList scan")
	}
}

type BedStatus string

const (
	BED_AVAILABLE   BedStatus = "available"
	BED_OCCUPIED    BedStatus = "occupied"
	BED_RESERVED    BedStatus = "reserved"
	BED_MAINTENANCE BedStatus = "maintenance"
)

type AllocationStatus string

const (
	ALLOCATION_ACTIVE      AllocationStatus = "active"
	ALLOCATION_DISCHARGED  AllocationStatus = "discharged"
	ALLOCATION_TRANSFERRED AllocationStatus = "transferred"
)

type TheatreStatus string

const (
	THEATRE_AVAILABLE   TheatreStatus = "available"
	THEATRE_IN_USE      TheatreStatus = "in-use"
	THEATRE_MAINTENANCE TheatreStatus = "maintenance"
	THEATRE_CLEANING    TheatreStatus = "cleaning"
)

type SurgeryStatus string

const (
	SURGERY_SCHEDULED   SurgeryStatus = "scheduled"
	SURGERY_IN_PROGRESS SurgeryStatus = "in-progress"
	SURGERY_COMPLETED   SurgeryStatus = "completed"
	SURGERY_CANCELLED   SurgeryStatus = "cancelled"
	SURGERY_POSTPONED   SurgeryStatus = "postponed"
)

type BloodUnitStatus string

const (
	UNIT_TESTING   BloodUnitStatus = "testing"
	UNIT_AVAILABLE BloodUnitStatus = "available"
	UNIT_RESERVED  BloodUnitStatus = "reserved"
	UNIT_ISSUED    BloodUnitStatus = "issued"
	UNIT_EXPIRED   BloodUnitStatus = "expired"
	UNIT_DISCARDED BloodUnitStatus = "discarded"
)

type BloodRequestStatus string

const (
	REQUEST_PENDING   BloodRequestStatus = "pending"
	REQUEST_APPROVED  BloodRequestStatus = "approved"
	REQUEST_PARTIAL   BloodRequestStatus = "partially-fulfilled"
	REQUEST_FULFILLED BloodRequestStatus = "fulfilled"
	REQUEST_REJECTED  BloodRequestStatus = "rejected"
	REQUEST_CANCELLED BloodRequestStatus = "cancelled"
)

var Wards = []string{"ICU", "General", "Pediatric", "Maternity", "Surgical", "Emergency", "Private"}

var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var BloodComponents = []string{"whole-blood", "rbc", "plasma", "platelets", "cryoprecipitate"}

type CreateBedRequestBody struct {
	BedNumber string  `json:"bed_number" binding:"required"`
	Ward      string  `json:"ward" binding:"required,wardname"`
	Floor     int     `json:"floor" binding:"required"`
	Type      string  `json:"type,omitempty" binding:"omitempty,oneof=standard electric ICU bariatric pediatric"`
	DailyRate float32 `json:"daily_rate,omitempty"`
}

type UpdateBedRequestBody struct {
	Ward      string  `json:"ward,omitempty" binding:"omitempty,wardname"`
	Floor     int     `json:"floor,omitempty"`
	Type      string  `json:"type,omitempty" binding:"omitempty,oneof=standard electric ICU bariatric pediatric"`
	DailyRate float32 `json:"daily_rate,omitempty"`
}

type AllocateBedRequestBody struct {
	Bed       uint   `json:"bed" binding:"required"`
	Patient   string `json:"patient" binding:"required"`
	Severity  string `json:"severity" binding:"required,oneof=critical serious stable recovering"`
	Diagnosis string `json:"diagnosis,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type TransferBedRequestBody struct {
	AllocationID uint   `json:"allocation_id" binding:"required"`
	ToBed        uint   `json:"to_bed" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
}

type CreateTheatreRequestBody struct {
	Name   string `json:"name" binding:"required"`
	Number int    `json:"number" binding:"required"`
	Floor  int    `json:"floor" binding:"required"`
	Type   string `json:"type" binding:"required,oneof=general cardiac neuro ortho ophthalmic emergency"`
}

type UpdateTheatreRequestBody struct {
	Number int    `json:"number,omitempty"`
	Floor  int    `json:"floor,omitempty"`
	Type   string `json:"type,omitempty" binding:"omitempty,oneof=general cardiac neuro ortho ophthalmic emergency"`
}

type ScheduleSurgeryRequestBody struct {
	Theatre           uint     `json:"theatre" binding:"required"`
	Patient           string   `json:"patient" binding:"required"`
	LeadSurgeon       string   `json:"lead_surgeon" binding:"required"`
	Anesthetist       string   `json:"anesthetist,omitempty"`
	AssistingSurgeons []string `json:"assisting_surgeons,omitempty"`
	ProcedureName     string   `json:"procedure_name" binding:"required"`
	ProcedureType     string   `json:"procedure_type" binding:"required,oneof=elective emergency day-case"`
	ScheduledDate     string   `json:"scheduled_date" binding:"required"`
	StartTime         string   `json:"start_time" binding:"required,clocktime"`
	EndTime           string   `json:"end_time" binding:"required,clocktime"`
	EstimatedDuration uint     `json:"estimated_duration,omitempty"`
	EmergencyOverride bool     `json:"is_emergency_override,omitempty"`
	PreOpNotes        string   `json:"pre_op_notes,omitempty"`
}

type UpdateSurgeryStatusRequestBody struct {
	Status SurgeryStatus `json:"status" binding:"required,oneof=scheduled in-progress completed cancelled postponed"`
}

type CreateBloodUnitRequestBody struct {
	BloodGroup      string `json:"blood_group" binding:"required,bloodgroup"`
	Component       string `json:"component,omitempty" binding:"omitempty,oneof=whole-blood rbc plasma platelets cryoprecipitate"`
	Donor           string `json:"donor,omitempty"`
	CollectionDate  string `json:"collection_date" binding:"required"`
	ExpiryDate      string `json:"expiry_date" binding:"required"`
	Volume          uint   `json:"volume,omitempty"`
	StorageLocation string `json:"storage_location,omitempty"`
}

type UpdateBloodUnitRequestBody struct {
	Status          BloodUnitStatus `json:"status,omitempty" binding:"omitempty,oneof=available discarded"`
	StorageLocation string          `json:"storage_location,omitempty"`
}

type CreateDonorRequestBody struct {
	Name       string `json:"name" binding:"required"`
	BloodGroup string `json:"blood_group" binding:"required,bloodgroup"`
	Phone      string `json:"phone" binding:"required"`
	Email      string `json:"email,omitempty"`
}

type CreateBloodRequestBody struct {
	Patient       string `json:"patient" binding:"required"`
	BloodGroup    string `json:"blood_group" binding:"required,bloodgroup"`
	Component     string `json:"component,omitempty" binding:"omitempty,oneof=whole-blood rbc plasma platelets cryoprecipitate"`
	UnitsRequired uint   `json:"units_required" binding:"required,min=1"`
	Priority      string `json:"priority,omitempty" binding:"omitempty,oneof=routine urgent emergency"`
	Reason        string `json:"reason,omitempty"`
}

type FulfillBloodRequestBody struct {
	CandidateUnitIDs []uint `json:"candidate_unit_ids,omitempty"`
	AcceptPartial    bool   `json:"accept_partial,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type PageQuery struct {
	Page  int `form:"page,default=1" binding:"omitempty,min=1"`
	Limit int `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}

type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}
