package models

import (
	"hms/src/types"
	"time"
)

type BloodUnit struct {
	ID              uint                  `gorm:"primarykey" json:"id"`
	UnitID          string                `gorm:"uniqueIndex" json:"unit_id"`
	BloodGroup      string                `gorm:"index:idx_units_group_status" json:"blood_group"`
	Component       string                `gorm:"default:'whole-blood'" json:"component"`
	DonorID         string                `json:"donor_id,omitempty"`
	CollectionDate  time.Time             `json:"collection_date"`
	ExpiryDate      time.Time             `json:"expiry_date"`
	Status          types.BloodUnitStatus `gorm:"default:'testing';index:idx_units_group_status" json:"status"`
	Volume          uint                  `gorm:"default:450" json:"volume,omitempty"`
	StorageLocation string                `json:"storage_location,omitempty"`

	types.Timestamps
}

type BloodRequest struct {
	ID            uint                     `gorm:"primarykey" json:"id"`
	RequestID     string                   `gorm:"uniqueIndex" json:"request_id"`
	PatientID     string                   `json:"patient_id"`
	RequestedBy   string                   `json:"requested_by,omitempty"`
	BloodGroup    string                   `json:"blood_group"`
	Component     string                   `gorm:"default:'whole-blood'" json:"component"`
	UnitsRequired uint                     `json:"units_required"`
	UnitsIssued   uint                     `gorm:"default:0" json:"units_issued"`
	Priority      string                   `gorm:"default:'routine'" json:"priority,omitempty"`
	Status        types.BloodRequestStatus `gorm:"default:'pending';index" json:"status"`
	ApprovedBy    string                   `json:"approved_by,omitempty"`
	Reason        string                   `json:"reason,omitempty"`

	Issues []BloodIssue `gorm:"foreignKey:RequestID" json:"issues,omitempty"`

	types.Timestamps
}

// BloodIssue records one unit consumed by one request. The unique index on
// UnitID is what keeps a unit from ever being issued twice.
type BloodIssue struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	RequestID uint   `gorm:"index" json:"request_id"`
	UnitID    uint   `gorm:"uniqueIndex" json:"unit_id"`
	IssuedBy  string `json:"issued_by,omitempty"`

	types.Timestamps
}

type Donor struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	DonorID          string     `gorm:"uniqueIndex" json:"donor_id"`
	Name             string     `json:"name"`
	BloodGroup       string     `gorm:"index" json:"blood_group"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email,omitempty"`
	LastDonationDate *time.Time `json:"last_donation_date,omitempty"`
	TotalDonations   uint       `gorm:"default:0" json:"total_donations"`
	IsEligible       bool       `gorm:"default:true" json:"is_eligible"`

	types.Timestamps
}
