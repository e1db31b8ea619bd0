package allocator

import (
	"errors"
	"time"

	"hms/src/config"
	"hms/src/models"
	"hms/src/types"

	"gorm.io/gorm"
)

// BedAllocator owns every write to beds.status and to stay rows. Reads for
// listings go straight to the database; mutations come through here so the
// compare-and-set discipline is kept in one place.
type BedAllocator struct {
	db *gorm.DB
}

func NewBedAllocator(db *gorm.DB) *BedAllocator {
	return &BedAllocator{db: db}
}

// WardStats is one dashboard row. Occupancy counts maintenance beds in the
// denominator so a ward half closed for repairs still reads as tight.
type WardStats struct {
	Ward        string  `json:"ward"`
	Total       int64   `json:"total"`
	Occupied    int64   `json:"occupied"`
	Available   int64   `json:"available"`
	Maintenance int64   `json:"maintenance"`
	Occupancy   float64 `json:"occupancy"`
}

// Allocate admits a patient to a bed. The stay row is created first, then
// the bed is claimed with a conditional update; if another admission won
// the race the whole transaction rolls back and no orphan stay remains.
func (a *BedAllocator) Allocate(actor string, body *types.AllocateBedRequestBody) (*models.BedAllocation, []Event, error) {
	var bed models.Bed
	var stay models.BedAllocation
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bed, body.Bed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		stay = models.BedAllocation{
			BedID:         bed.ID,
			PatientID:     body.Patient,
			AdmittedBy:    actor,
			AdmissionDate: time.Now(),
			Severity:      body.Severity,
			Diagnosis:     body.Diagnosis,
			Notes:         body.Notes,
			Status:        types.ALLOCATION_ACTIVE,
		}
		if err := tx.Create(&stay).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Bed{}).
			Where("id = ? AND status = ?", bed.ID, types.BED_AVAILABLE).
			Updates(map[string]any{"status": types.BED_OCCUPIED, "current_stay_id": stay.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrResourceUnavailable
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := []Event{NewEvent(ModuleBeds, EventBedUpdate, types.JSONB{
		"bed":        bed.ID,
		"ward":       bed.Ward,
		"status":     types.BED_OCCUPIED,
		"allocation": stay.ID,
		"patient":    stay.PatientID,
	})}
	if alert := a.capacityAlert(bed.Ward); alert != nil {
		events = append(events, *alert)
	}
	return &stay, events, nil
}

// Transfer moves an active stay to another bed. The destination is claimed
// before the source is released, so two concurrent transfers into the same
// bed cannot both succeed.
func (a *BedAllocator) Transfer(actor string, body *types.TransferBedRequestBody) (*models.BedAllocation, []Event, error) {
	var stay models.BedAllocation
	var fromBedID uint
	var dest models.Bed
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&stay, body.AllocationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if stay.Status != types.ALLOCATION_ACTIVE {
			return ErrNotFound
		}
		if err := tx.First(&dest, body.ToBed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		fromBedID = stay.BedID

		res := tx.Model(&models.Bed{}).
			Where("id = ? AND status = ?", dest.ID, types.BED_AVAILABLE).
			Updates(map[string]any{"status": types.BED_OCCUPIED, "current_stay_id": stay.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrResourceUnavailable
		}

		if err := tx.Model(&models.Bed{}).
			Where("id = ? AND current_stay_id = ?", fromBedID, stay.ID).
			Updates(map[string]any{"status": types.BED_AVAILABLE, "current_stay_id": nil}).Error; err != nil {
			return err
		}

		transfer := models.BedTransfer{
			AllocationID:  stay.ID,
			FromBedID:     fromBedID,
			ToBedID:       dest.ID,
			Reason:        body.Reason,
			TransferredBy: actor,
		}
		if err := tx.Create(&transfer).Error; err != nil {
			return err
		}

		stay.BedID = dest.ID
		return tx.Model(&models.BedAllocation{}).
			Where("id = ?", stay.ID).
			Update("bed_id", dest.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}

	events := []Event{
		NewEvent(ModuleBeds, EventBedUpdate, types.JSONB{
			"bed":    fromBedID,
			"status": types.BED_AVAILABLE,
		}),
		NewEvent(ModuleBeds, EventBedUpdate, types.JSONB{
			"bed":        dest.ID,
			"ward":       dest.Ward,
			"status":     types.BED_OCCUPIED,
			"allocation": stay.ID,
		}),
	}
	if alert := a.capacityAlert(dest.Ward); alert != nil {
		events = append(events, *alert)
	}
	return &stay, events, nil
}

// Discharge ends an active stay and frees its bed. A second discharge of
// the same stay finds it no longer active and reports NotFound, leaving
// all rows untouched.
func (a *BedAllocator) Discharge(actor string, stayID uint) (*models.BedAllocation, []Event, error) {
	var stay models.BedAllocation
	now := time.Now()
	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&stay, stayID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if stay.Status != types.ALLOCATION_ACTIVE {
			return ErrNotFound
		}
		res := tx.Model(&models.BedAllocation{}).
			Where("id = ? AND status = ?", stay.ID, types.ALLOCATION_ACTIVE).
			Updates(map[string]any{"status": types.ALLOCATION_DISCHARGED, "discharge_date": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.Bed{}).
			Where("id = ? AND current_stay_id = ?", stay.BedID, stay.ID).
			Updates(map[string]any{"status": types.BED_AVAILABLE, "current_stay_id": nil}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	stay.Status = types.ALLOCATION_DISCHARGED
	stay.DischargeDate = &now

	events := []Event{NewEvent(ModuleBeds, EventBedUpdate, types.JSONB{
		"bed":        stay.BedID,
		"status":     types.BED_AVAILABLE,
		"allocation": stay.ID,
	})}
	return &stay, events, nil
}

// SetMaintenance takes an available bed out of service.
func (a *BedAllocator) SetMaintenance(bedID uint) (*models.Bed, []Event, error) {
	return a.casBedStatus(bedID, types.BED_AVAILABLE, types.BED_MAINTENANCE)
}

// ReturnToService puts a maintenance bed back in the allocatable pool.
func (a *BedAllocator) ReturnToService(bedID uint) (*models.Bed, []Event, error) {
	return a.casBedStatus(bedID, types.BED_MAINTENANCE, types.BED_AVAILABLE)
}

func (a *BedAllocator) casBedStatus(bedID uint, from, to types.BedStatus) (*models.Bed, []Event, error) {
	var bed models.Bed
	if err := a.db.First(&bed, bedID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	res := a.db.Model(&models.Bed{}).
		Where("id = ? AND status = ?", bedID, from).
		Update("status", to)
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil, ErrResourceUnavailable
	}
	bed.Status = to
	events := []Event{NewEvent(ModuleBeds, EventBedUpdate, types.JSONB{
		"bed":    bed.ID,
		"ward":   bed.Ward,
		"status": to,
	})}
	return &bed, events, nil
}

// DashboardStats aggregates per-ward occupancy for the bed dashboard.
func (a *BedAllocator) DashboardStats() ([]WardStats, error) {
	stats := []WardStats{}
	for _, ward := range types.Wards {
		s, err := a.wardStats(ward)
		if err != nil {
			return nil, err
		}
		if s.Total == 0 {
			continue
		}
		stats = append(stats, *s)
	}
	return stats, nil
}

func (a *BedAllocator) wardStats(ward string) (*WardStats, error) {
	s := WardStats{Ward: ward}
	if err := a.db.Model(&models.Bed{}).Where("ward = ?", ward).Count(&s.Total).Error; err != nil {
		return nil, err
	}
	if s.Total == 0 {
		return &s, nil
	}
	if err := a.db.Model(&models.Bed{}).Where("ward = ? AND status = ?", ward, types.BED_OCCUPIED).Count(&s.Occupied).Error; err != nil {
		return nil, err
	}
	if err := a.db.Model(&models.Bed{}).Where("ward = ? AND status = ?", ward, types.BED_AVAILABLE).Count(&s.Available).Error; err != nil {
		return nil, err
	}
	if err := a.db.Model(&models.Bed{}).Where("ward = ? AND status = ?", ward, types.BED_MAINTENANCE).Count(&s.Maintenance).Error; err != nil {
		return nil, err
	}
	s.Occupancy = float64(s.Occupied) / float64(s.Total)
	return &s, nil
}

func (a *BedAllocator) capacityAlert(ward string) *Event {
	s, err := a.wardStats(ward)
	if err != nil || s.Total == 0 {
		return nil
	}
	if s.Occupancy <= config.CapacityAlertThreshold {
		return nil
	}
	ev := NewEvent(ModuleBeds, EventBedAlert, types.JSONB{
		"ward":      ward,
		"occupied":  s.Occupied,
		"total":     s.Total,
		"occupancy": s.Occupancy,
	})
	return &ev
}
