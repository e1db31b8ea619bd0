package allocator

import (
	"errors"
	"time"

	"hms/src/config"
	"hms/src/models"
	"hms/src/types"
	"hms/src/utils"

	"gorm.io/gorm"
)

// BloodInventoryMatcher pairs transfusion requests with stored units. A
// unit moves available -> issued exactly once; the unique index on the
// issue row's unit id backs the compare-and-set as a hard stop.
type BloodInventoryMatcher struct {
	db *gorm.DB
}

func NewBloodInventoryMatcher(db *gorm.DB) *BloodInventoryMatcher {
	return &BloodInventoryMatcher{db: db}
}

// GroupStats is one blood dashboard row.
type GroupStats struct {
	BloodGroup   string `json:"blood_group"`
	Available    int64  `json:"available"`
	Reserved     int64  `json:"reserved"`
	ExpiringSoon int64  `json:"expiring_soon"`
}

// openStatuses are the request states Fulfill will still act on.
var openStatuses = []types.BloodRequestStatus{
	types.REQUEST_PENDING,
	types.REQUEST_APPROVED,
	types.REQUEST_PARTIAL,
}

// Submit records a transfusion request. No inventory is touched here;
// consumption happens only in Fulfill.
func (m *BloodInventoryMatcher) Submit(actor string, body *types.CreateBloodRequestBody) (*models.BloodRequest, []Event, error) {
	component := body.Component
	if component == "" {
		component = "whole-blood"
	}
	priority := body.Priority
	if priority == "" {
		priority = "routine"
	}
	request := models.BloodRequest{
		RequestID:     utils.GenerateResourceID("BR"),
		PatientID:     body.Patient,
		RequestedBy:   actor,
		BloodGroup:    body.BloodGroup,
		Component:     component,
		UnitsRequired: body.UnitsRequired,
		Priority:      priority,
		Status:        types.REQUEST_PENDING,
		Reason:        body.Reason,
	}
	if err := m.db.Create(&request).Error; err != nil {
		return nil, nil, err
	}

	events := []Event{NewEvent(ModuleBloodBank, EventBloodRequest, types.JSONB{
		"request":     request.RequestID,
		"blood_group": request.BloodGroup,
		"component":   request.Component,
		"required":    request.UnitsRequired,
		"priority":    request.Priority,
	})}
	return &request, events, nil
}

// Fulfill consumes units against a request. Caller-supplied candidates are
// tried in the given order; without candidates the matcher picks available
// units of the matching group and component, earliest expiry first. Units
// that turn out not to be available any more are skipped, not fatal. If
// the request cannot be fully covered and partials are not accepted, the
// whole attempt rolls back.
func (m *BloodInventoryMatcher) Fulfill(actor string, requestID uint, body *types.FulfillBloodRequestBody) (*models.BloodRequest, []Event, error) {
	var request models.BloodRequest
	var issuedUnits []string
	err := m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		open := false
		for _, s := range openStatuses {
			if request.Status == s {
				open = true
			}
		}
		if !open {
			return ErrResourceUnavailable
		}

		remaining := request.UnitsRequired - request.UnitsIssued
		candidates, err := m.selectCandidates(tx, &request, body.CandidateUnitIDs)
		if err != nil {
			return err
		}

		var issued uint
		for _, unit := range candidates {
			if issued == remaining {
				break
			}
			res := tx.Model(&models.BloodUnit{}).
				Where("id = ? AND status = ?", unit.ID, types.UNIT_AVAILABLE).
				Update("status", types.UNIT_ISSUED)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			issue := models.BloodIssue{
				RequestID: request.ID,
				UnitID:    unit.ID,
				IssuedBy:  actor,
			}
			if err := tx.Create(&issue).Error; err != nil {
				return err
			}
			issuedUnits = append(issuedUnits, unit.UnitID)
			issued++
		}

		if issued < remaining && !body.AcceptPartial {
			return &InsufficientInventoryError{Available: issued, Required: remaining}
		}

		request.UnitsIssued += issued
		switch {
		case request.UnitsIssued == request.UnitsRequired:
			request.Status = types.REQUEST_FULFILLED
		case request.UnitsIssued > 0:
			request.Status = types.REQUEST_PARTIAL
		}
		return tx.Model(&models.BloodRequest{}).
			Where("id = ?", request.ID).
			Updates(map[string]any{
				"units_issued": request.UnitsIssued,
				"status":       request.Status,
				"approved_by":  actor,
			}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	request.ApprovedBy = actor

	events := []Event{NewEvent(ModuleBloodBank, EventBloodIssued, types.JSONB{
		"request":  request.RequestID,
		"issued":   issuedUnits,
		"progress": request.UnitsIssued,
		"required": request.UnitsRequired,
		"status":   request.Status,
	})}
	return &request, events, nil
}

func (m *BloodInventoryMatcher) selectCandidates(tx *gorm.DB, request *models.BloodRequest, candidateIDs []uint) ([]models.BloodUnit, error) {
	units := []models.BloodUnit{}
	if len(candidateIDs) > 0 {
		var found []models.BloodUnit
		if err := tx.Where("id IN ?", candidateIDs).Find(&found).Error; err != nil {
			return nil, err
		}
		byID := map[uint]models.BloodUnit{}
		for _, u := range found {
			byID[u.ID] = u
		}
		// preserve the caller's ordering
		for _, id := range candidateIDs {
			if u, ok := byID[id]; ok {
				units = append(units, u)
			}
		}
		return units, nil
	}
	err := tx.Where(
		"blood_group = ? AND component = ? AND status = ?",
		request.BloodGroup, request.Component, types.UNIT_AVAILABLE,
	).Order("expiry_date asc").
		Limit(int(request.UnitsRequired - request.UnitsIssued)).
		Find(&units).Error
	return units, err
}

// ReleaseFromTesting moves a unit that cleared screening into the
// allocatable pool.
func (m *BloodInventoryMatcher) ReleaseFromTesting(unitID uint) (*models.BloodUnit, error) {
	return m.casUnitStatus(unitID, []types.BloodUnitStatus{types.UNIT_TESTING}, types.UNIT_AVAILABLE)
}

// DiscardUnit removes a unit that failed screening or can no longer be
// used. Issued units are history and cannot be discarded.
func (m *BloodInventoryMatcher) DiscardUnit(unitID uint) (*models.BloodUnit, error) {
	return m.casUnitStatus(unitID, []types.BloodUnitStatus{types.UNIT_TESTING, types.UNIT_AVAILABLE}, types.UNIT_DISCARDED)
}

func (m *BloodInventoryMatcher) casUnitStatus(unitID uint, from []types.BloodUnitStatus, to types.BloodUnitStatus) (*models.BloodUnit, error) {
	var unit models.BloodUnit
	if err := m.db.First(&unit, unitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res := m.db.Model(&models.BloodUnit{}).
		Where("id = ? AND status IN ?", unitID, from).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrResourceUnavailable
	}
	unit.Status = to
	return &unit, nil
}

// ExpireUnits sweeps available units whose expiry date has passed. Run
// from the scheduler, never from a request path.
func (m *BloodInventoryMatcher) ExpireUnits(now time.Time) (int64, error) {
	res := m.db.Model(&models.BloodUnit{}).
		Where("status = ? AND expiry_date < ?", types.UNIT_AVAILABLE, now).
		Update("status", types.UNIT_EXPIRED)
	return res.RowsAffected, res.Error
}

// InventoryStats aggregates per-group availability for the blood dashboard.
func (m *BloodInventoryMatcher) InventoryStats(now time.Time) ([]GroupStats, error) {
	soon := now.AddDate(0, 0, config.ExpiringSoonWindowDays)
	stats := []GroupStats{}
	for _, group := range types.BloodGroups {
		s := GroupStats{BloodGroup: group}
		if err := m.db.Model(&models.BloodUnit{}).
			Where("blood_group = ? AND status = ?", group, types.UNIT_AVAILABLE).
			Count(&s.Available).Error; err != nil {
			return nil, err
		}
		if err := m.db.Model(&models.BloodUnit{}).
			Where("blood_group = ? AND status = ?", group, types.UNIT_RESERVED).
			Count(&s.Reserved).Error; err != nil {
			return nil, err
		}
		if err := m.db.Model(&models.BloodUnit{}).
			Where("blood_group = ? AND status = ? AND expiry_date < ?", group, types.UNIT_AVAILABLE, soon).
			Count(&s.ExpiringSoon).Error; err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, nil
}
