package models

import (
	"hms/src/types"
	"time"
)

type Theatre struct {
	ID     uint                `gorm:"primarykey" json:"id"`
	Name   string              `gorm:"uniqueIndex" json:"name"`
	Number int                 `json:"number"`
	Floor  int                 `json:"floor"`
	Type   string              `gorm:"default:'general'" json:"type,omitempty"`
	Status types.TheatreStatus `gorm:"default:'available'" json:"status"`

	types.Timestamps
}

type Surgery struct {
	ID                uint                `gorm:"primarykey" json:"id"`
	SurgeryID         string              `gorm:"uniqueIndex" json:"surgery_id"`
	TheatreID         uint                `gorm:"index:idx_surgeries_theatre_date" json:"theatre_id"`
	PatientID         string              `json:"patient_id"`
	LeadSurgeon       string              `json:"lead_surgeon"`
	Anesthetist       string              `json:"anesthetist,omitempty"`
	AssistingSurgeons types.StringList    `gorm:"type:jsonb" json:"assisting_surgeons,omitempty"`
	ProcedureName     string              `json:"procedure_name"`
	ProcedureType     string              `json:"procedure_type"`
	ScheduledDate     time.Time           `gorm:"index:idx_surgeries_theatre_date" json:"scheduled_date"`
	StartTime         string              `json:"start_time"`
	EndTime           string              `json:"end_time"`
	EstimatedDuration uint                `json:"estimated_duration,omitempty"`
	ActualDuration    *uint               `json:"actual_duration,omitempty"`
	Status            types.SurgeryStatus `gorm:"default:'scheduled'" json:"status"`
	EmergencyOverride bool                `json:"is_emergency_override"`
	PreOpNotes        string              `json:"pre_op_notes,omitempty"`
	PostOpNotes       string              `json:"post_op_notes,omitempty"`

	Theatre *Theatre `gorm:"foreignKey:theatre_id" json:"theatre,omitempty"`

	types.Timestamps
}
