package allocator

import (
	"errors"

	"hms/src/models"
	"hms/src/types"
	"hms/src/utils"

	"gorm.io/gorm"
)

// TheatreScheduler books operating theatres. Windows are half-open
// [start, end) clock intervals on a single calendar date, compared as
// zero-padded HH:MM strings.
type TheatreScheduler struct {
	db *gorm.DB
}

func NewTheatreScheduler(db *gorm.DB) *TheatreScheduler {
	return &TheatreScheduler{db: db}
}

// surgeryTransitions is the legal status graph. Terminal states have no
// entry at all.
var surgeryTransitions = map[types.SurgeryStatus][]types.SurgeryStatus{
	types.SURGERY_SCHEDULED:   {types.SURGERY_IN_PROGRESS, types.SURGERY_CANCELLED, types.SURGERY_POSTPONED},
	types.SURGERY_IN_PROGRESS: {types.SURGERY_COMPLETED},
}

func transitionAllowed(from, to types.SurgeryStatus) bool {
	for _, s := range surgeryTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// blockingStatuses are the booking states that hold a theatre window.
// Cancelled and postponed bookings release theirs.
var blockingStatuses = []types.SurgeryStatus{types.SURGERY_SCHEDULED, types.SURGERY_IN_PROGRESS}

// Schedule books a theatre window. Without the override flag a conflicting
// booking rejects the request and is returned to the caller; with it, the
// booking is forced through as an emergency and every other scheduled
// booking on that theatre and date is postponed, whether or not it
// overlaps. The theatre is cleared for the whole day.
func (s *TheatreScheduler) Schedule(actor string, body *types.ScheduleSurgeryRequestBody) (*models.Surgery, []Event, error) {
	date, err := utils.ParseDateOnly(body.ScheduledDate)
	if err != nil {
		return nil, nil, &ValidationError{Field: "scheduled_date", Reason: "must be YYYY-MM-DD"}
	}
	if body.EndTime <= body.StartTime {
		return nil, nil, &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}

	var theatre models.Theatre
	var surgery models.Surgery
	var postponed []models.Surgery
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&theatre, body.Theatre).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if theatre.Status == types.THEATRE_MAINTENANCE {
			return ErrResourceUnavailable
		}

		procedureType := body.ProcedureType
		if body.EmergencyOverride {
			// the emergency clears the whole day, not just its own window
			procedureType = "emergency"
			if err := tx.Where(
				"theatre_id = ? AND scheduled_date = ? AND status = ?",
				theatre.ID, date, types.SURGERY_SCHEDULED,
			).Find(&postponed).Error; err != nil {
				return err
			}
			for _, p := range postponed {
				res := tx.Model(&models.Surgery{}).
					Where("id = ? AND status = ?", p.ID, types.SURGERY_SCHEDULED).
					Update("status", types.SURGERY_POSTPONED)
				if res.Error != nil {
					return res.Error
				}
			}
		} else {
			var conflict models.Surgery
			err := tx.Where(
				"theatre_id = ? AND scheduled_date = ? AND status IN ? AND start_time < ? AND ? < end_time",
				theatre.ID, date, blockingStatuses, body.EndTime, body.StartTime,
			).First(&conflict).Error
			if err == nil {
				return &ScheduleConflictError{Conflict: &conflict}
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		surgery = models.Surgery{
			SurgeryID:         utils.GenerateResourceID("SUR"),
			TheatreID:         theatre.ID,
			PatientID:         body.Patient,
			LeadSurgeon:       body.LeadSurgeon,
			Anesthetist:       body.Anesthetist,
			AssistingSurgeons: types.StringList(body.AssistingSurgeons),
			ProcedureName:     body.ProcedureName,
			ProcedureType:     procedureType,
			ScheduledDate:     date,
			StartTime:         body.StartTime,
			EndTime:           body.EndTime,
			EstimatedDuration: body.EstimatedDuration,
			Status:            types.SURGERY_SCHEDULED,
			EmergencyOverride: body.EmergencyOverride,
			PreOpNotes:        body.PreOpNotes,
		}
		return tx.Create(&surgery).Error
	})
	if txErr != nil {
		return nil, nil, txErr
	}

	events := []Event{NewEvent(ModuleTheatres, EventSurgeryUpdate, types.JSONB{
		"surgery":  surgery.SurgeryID,
		"theatre":  theatre.ID,
		"date":     body.ScheduledDate,
		"window":   body.StartTime + "-" + body.EndTime,
		"status":   types.SURGERY_SCHEDULED,
		"override": body.EmergencyOverride,
	})}
	for _, p := range postponed {
		events = append(events, NewEvent(ModuleTheatres, EventSurgeryPostponed, types.JSONB{
			"surgery":     p.SurgeryID,
			"theatre":     theatre.ID,
			"date":        body.ScheduledDate,
			"demoted_for": surgery.SurgeryID,
		}))
	}
	return &surgery, events, nil
}

// UpdateStatus moves a booking along the transition graph and applies the
// theatre side effect: going in-progress marks the theatre in use, and
// completion sends it to cleaning.
func (s *TheatreScheduler) UpdateStatus(actor string, surgeryID uint, next types.SurgeryStatus) (*models.Surgery, []Event, error) {
	var surgery models.Surgery
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&surgery, surgeryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !transitionAllowed(surgery.Status, next) {
			return &ValidationError{Field: "status", Reason: string(surgery.Status) + " cannot move to " + string(next)}
		}
		res := tx.Model(&models.Surgery{}).
			Where("id = ? AND status = ?", surgery.ID, surgery.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrResourceUnavailable
		}

		switch next {
		case types.SURGERY_IN_PROGRESS:
			if err := tx.Model(&models.Theatre{}).
				Where("id = ?", surgery.TheatreID).
				Update("status", types.THEATRE_IN_USE).Error; err != nil {
				return err
			}
		case types.SURGERY_COMPLETED:
			if err := tx.Model(&models.Theatre{}).
				Where("id = ?", surgery.TheatreID).
				Update("status", types.THEATRE_CLEANING).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	surgery.Status = next

	events := []Event{NewEvent(ModuleTheatres, EventSurgeryUpdate, types.JSONB{
		"surgery": surgery.SurgeryID,
		"theatre": surgery.TheatreID,
		"status":  next,
	})}
	return &surgery, events, nil
}
