package models

import (
	"hms/src/types"
	"time"
)

type Bed struct {
	ID            uint            `gorm:"primarykey" json:"id"`
	BedNumber     string          `gorm:"uniqueIndex" json:"bed_number"`
	Ward          string          `gorm:"index:idx_beds_ward_status" json:"ward"`
	Floor         int             `json:"floor"`
	Type          string          `gorm:"default:'standard'" json:"type,omitempty"`
	Status        types.BedStatus `gorm:"default:'available';index:idx_beds_ward_status" json:"status"`
	CurrentStayID *uint           `json:"current_stay_id,omitempty"`
	DailyRate     float32         `json:"daily_rate,omitempty"`

	types.Timestamps
}

// BedAllocation is one admission episode. A bed outlives any particular
// stay, so the relationship is looked up via CurrentStayID, never embedded.
type BedAllocation struct {
	ID            uint                   `gorm:"primarykey" json:"id"`
	BedID         uint                   `json:"bed_id"`
	PatientID     string                 `gorm:"index" json:"patient_id"`
	AdmittedBy    string                 `json:"admitted_by,omitempty"`
	AdmissionDate time.Time              `json:"admission_date"`
	DischargeDate *time.Time             `json:"discharge_date,omitempty"`
	Severity      string                 `json:"severity,omitempty"`
	Diagnosis     string                 `json:"diagnosis,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	Status        types.AllocationStatus `gorm:"default:'active';index" json:"status"`

	Bed             *Bed          `gorm:"foreignKey:bed_id" json:"bed,omitempty"`
	TransferHistory []BedTransfer `gorm:"foreignKey:AllocationID" json:"transfer_history,omitempty"`

	types.Timestamps
}

// BedTransfer rows are append-only history owned by the stay.
type BedTransfer struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	AllocationID  uint   `gorm:"index" json:"allocation_id"`
	FromBedID     uint   `json:"from_bed_id"`
	ToBedID       uint   `json:"to_bed_id"`
	Reason        string `json:"reason,omitempty"`
	TransferredBy string `json:"transferred_by,omitempty"`

	types.Timestamps
}
