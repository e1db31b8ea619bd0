package allocator

import (
	"errors"
	"testing"
	"time"

	"hms/src/models"
	"hms/src/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type BloodMatcherTestSuite struct {
	suite.Suite
	DB      *gorm.DB
	Matcher *BloodInventoryMatcher
}

func (s *BloodMatcherTestSuite) SetupTest() {
	s.DB = newTestDB()
	s.Matcher = NewBloodInventoryMatcher(s.DB)
}

func (s *BloodMatcherTestSuite) createUnit(code, group string, status types.BloodUnitStatus, expiresIn time.Duration) *models.BloodUnit {
	now := time.Now()
	unit := models.BloodUnit{
		UnitID:         code,
		BloodGroup:     group,
		Component:      "whole-blood",
		CollectionDate: now.AddDate(0, 0, -1),
		ExpiryDate:     now.Add(expiresIn),
		Status:         status,
	}
	err := s.DB.Create(&unit).Error
	assert.Nil(s.T(), err)
	return &unit
}

func (s *BloodMatcherTestSuite) submit(group string, required uint) *models.BloodRequest {
	request, _, err := s.Matcher.Submit("dr-cho", &types.CreateBloodRequestBody{
		Patient:       "PAT-3001",
		BloodGroup:    group,
		UnitsRequired: required,
	})
	assert.Nil(s.T(), err)
	return request
}

func (s *BloodMatcherTestSuite) TestSubmitCreatesPendingRequest() {
	request, events, err := s.Matcher.Submit("dr-cho", &types.CreateBloodRequestBody{
		Patient:       "PAT-3001",
		BloodGroup:    "O-",
		UnitsRequired: 2,
	})
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.REQUEST_PENDING, request.Status)
	assert.Equal(s.T(), "whole-blood", request.Component)
	assert.Equal(s.T(), "routine", request.Priority)
	assert.Contains(s.T(), request.RequestID, "BR-")
	assert.Equal(s.T(), uint(0), request.UnitsIssued)
	assert.Len(s.T(), events, 1)
	assert.Equal(s.T(), EventBloodRequest, events[0].Name)
}

func (s *BloodMatcherTestSuite) TestFulfillWithCandidates() {
	u1 := s.createUnit("BU-1", "O-", types.UNIT_AVAILABLE, 72*time.Hour)
	u2 := s.createUnit("BU-2", "O-", types.UNIT_AVAILABLE, 48*time.Hour)
	request := s.submit("O-", 2)

	out, events, err := s.Matcher.Fulfill("tech-2", request.ID, &types.FulfillBloodRequestBody{
		CandidateUnitIDs: []uint{u1.ID, u2.ID},
	})
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.REQUEST_FULFILLED, out.Status)
	assert.Equal(s.T(), uint(2), out.UnitsIssued)

	var issued int64
	s.DB.Model(&models.BloodUnit{}).Where("status = ?", types.UNIT_ISSUED).Count(&issued)
	assert.Equal(s.T(), int64(2), issued)

	var issues []models.BloodIssue
	s.DB.Where("request_id = ?", request.ID).Find(&issues)
	assert.Len(s.T(), issues, 2)

	assert.Len(s.T(), events, 1)
	assert.Equal(s.T(), EventBloodIssued, events[0].Name)
}

func (s *BloodMatcherTestSuite) TestFulfillInsufficientRollsBack() {
	s.createUnit("BU-1", "O-", types.UNIT_AVAILABLE, 72*time.Hour)
	request := s.submit("O-", 3)

	_, _, err := s.Matcher.Fulfill("tech-2", request.ID, &types.FulfillBloodRequestBody{})
	var insufficient *InsufficientInventoryError
	assert.True(s.T(), errors.As(err, &insufficient))
	assert.Equal(s.T(), uint(1), insufficient.Available)
	assert.Equal(s.T(), uint(3), insufficient.Required)

	// rollback left the one unit on the shelf and the request untouched
	var unit models.BloodUnit
	s.DB.Where("unit_id = ?", "BU-1").First(&unit)
	assert.Equal(s.T(), types.UNIT_AVAILABLE, unit.Status)

	var stored models.BloodRequest
	s.DB.First(&stored, request.ID)
	assert.Equal(s.T(), types.REQUEST_PENDING, stored.Status)
	assert.Equal(s.T(), uint(0), stored.UnitsIssued)

	var issues int64
	s.DB.Model(&models.BloodIssue{}).Count(&issues)
	assert.Equal(s.T(), int64(0), issues)
}

func (s *BloodMatcherTestSuite) TestFulfillAcceptPartial() {
	s.createUnit("BU-1", "O-", types.UNIT_AVAILABLE, 72*time.Hour)
	request := s.submit("O-", 3)

	out, _, err := s.Matcher.Fulfill("tech-2", request.ID, &types.FulfillBloodRequestBody{AcceptPartial: true})
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.REQUEST_PARTIAL, out.Status)
	assert.Equal(s.T(), uint(1), out.UnitsIssued)

	// topping up later completes the request
	s.createUnit("BU-2", "O-", types.UNIT_AVAILABLE, 72*time.Hour)
	s.createUnit("BU-3", "O-", types.UNIT_AVAILABLE, 72*time.Hour)
	out, _, err = s.Matcher.Fulfill("tech-2", request.ID, &types.FulfillBloodRequestBody{})
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.REQUEST_FULFILLED, out.Status)
	assert.Equal(s.T(), uint(3), out.UnitsIssued)
}

func (s *BloodMatcherTestSuite) TestFulfillSkipsUnavailableCandidates() {
	bad := s.createUnit("BU-1", "O-", types.UNIT_TESTING, 72*time.Hour)
	good := s.createUnit("BU-2", "O-", types.UNIT_AVAILABLE, 72*time.Hour)
	request := s.submit("O-", 1)

	out, _, err := s.Matcher.Fulfill("tech-2", request.ID, &types.FulfillBloodRequestBody{
		CandidateUnitIDs: []uint{bad.ID, good.ID},
	})
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.REQUEST_FULFILLED, out.Status)

	var issues []models.BloodIssue
	s.DB.Find(&issues)
	assert.Len(s.T(), issues, 1)
	assert.Equal(s.T(), good.ID, issues[0].UnitID)
}

func (s *BloodMatcherTestSuite) TestFulfillPicksEarliestExpiryFirst() {
	late := s.createUnit("BU-1", "A+", types.UNIT_AVAILABLE, 96*time.Hour)
	early := s.createUnit("BU-2", "A+", types.UNIT_AVAILABLE, 24*time.Hour)
	s.createUnit("BU-3", "B+", types.UNIT_AVAILABLE, 12*time.Hour)
	request := s.submit("A+", 1)

	_, _, err := s.Matcher.Fulfill("tech-2", request.ID, &types.FulfillBloodRequestBody{})
	assert.Nil(s.T(), err)

	var stored models.BloodUnit
	s.DB.First(&stored, early.ID)
	assert.Equal(s.T(), types.UNIT_ISSUED, stored.Status)
	s.DB.First(&stored, late.ID)
	assert.Equal(s.T(), types.UNIT_AVAILABLE, stored.Status)
}

func (s *BloodMatcherTestSuite) TestUnitNeverIssuedTwice() {
	unit := s.createUnit("BU-1", "O-", types.UNIT_AVAILABLE, 72*time.Hour)
	first := s.submit("O-", 1)
	second := s.submit("O-", 1)

	_, _, err := s.Matcher.Fulfill("tech-2", first.ID, &types.FulfillBloodRequestBody{
		CandidateUnitIDs: []uint{unit.ID},
	})
	assert.Nil(s.T(), err)

	_, _, err = s.Matcher.Fulfill("tech-2", second.ID, &types.FulfillBloodRequestBody{
		CandidateUnitIDs: []uint{unit.ID},
	})
	var insufficient *InsufficientInventoryError
	assert.True(s.T(), errors.As(err, &insufficient))

	var issues int64
	s.DB.Model(&models.BloodIssue{}).Where("unit_id = ?", unit.ID).Count(&issues)
	assert.Equal(s.T(), int64(1), issues)
}

func (s *BloodMatcherTestSuite) TestFulfillClosedRequest() {
	s.createUnit("BU-1", "O-", types.UNIT_AVAILABLE, 72*time.Hour)
	request := s.submit("O-", 1)
	_, _, err := s.Matcher.Fulfill("tech-2", request.ID, &types.FulfillBloodRequestBody{})
	assert.Nil(s.T(), err)

	_, _, err = s.Matcher.Fulfill("tech-2", request.ID, &types.FulfillBloodRequestBody{})
	assert.ErrorIs(s.T(), err, ErrResourceUnavailable)

	_, _, err = s.Matcher.Fulfill("tech-2", 999, &types.FulfillBloodRequestBody{})
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *BloodMatcherTestSuite) TestUnitLifecycle() {
	unit := s.createUnit("BU-1", "O-", types.UNIT_TESTING, 72*time.Hour)

	released, err := s.Matcher.ReleaseFromTesting(unit.ID)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.UNIT_AVAILABLE, released.Status)

	// available units can still be pulled for a failed re-screen
	discarded, err := s.Matcher.DiscardUnit(unit.ID)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), types.UNIT_DISCARDED, discarded.Status)

	// discarded is history
	_, err = s.Matcher.ReleaseFromTesting(unit.ID)
	assert.ErrorIs(s.T(), err, ErrResourceUnavailable)

	_, err = s.Matcher.DiscardUnit(999)
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *BloodMatcherTestSuite) TestExpireUnits() {
	s.createUnit("BU-1", "O-", types.UNIT_AVAILABLE, -24*time.Hour)
	s.createUnit("BU-2", "O-", types.UNIT_AVAILABLE, 24*time.Hour)
	issued := s.createUnit("BU-3", "O-", types.UNIT_ISSUED, -24*time.Hour)

	swept, err := s.Matcher.ExpireUnits(time.Now())
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), int64(1), swept)

	// issued units are history even when past expiry
	var stored models.BloodUnit
	s.DB.First(&stored, issued.ID)
	assert.Equal(s.T(), types.UNIT_ISSUED, stored.Status)
}

func (s *BloodMatcherTestSuite) TestInventoryStats() {
	s.createUnit("BU-1", "O-", types.UNIT_AVAILABLE, 48*time.Hour)
	s.createUnit("BU-2", "O-", types.UNIT_AVAILABLE, 30*24*time.Hour)
	s.createUnit("BU-3", "O-", types.UNIT_ISSUED, 48*time.Hour)

	stats, err := s.Matcher.InventoryStats(time.Now())
	assert.Nil(s.T(), err)
	assert.Len(s.T(), stats, len(types.BloodGroups))

	var oneg *GroupStats
	for i := range stats {
		if stats[i].BloodGroup == "O-" {
			oneg = &stats[i]
		}
	}
	assert.NotNil(s.T(), oneg)
	assert.Equal(s.T(), int64(2), oneg.Available)
	assert.Equal(s.T(), int64(1), oneg.ExpiringSoon)
}

func TestBloodMatcherTestSuite(t *testing.T) {
	suite.Run(t, new(BloodMatcherTestSuite))
}
