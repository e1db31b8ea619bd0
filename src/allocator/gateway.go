package allocator

import (
	"time"

	"hms/src/models"
	"hms/src/types"

	"gorm.io/gorm"
)

// AllocationGateway is the single entry point the transport layer talks
// to. It routes each call to the owning allocator and, once the allocator
// has committed, hands the resulting events to the injected publisher.
// Nothing below the gateway knows a socket or a broker exists.
type AllocationGateway struct {
	Beds     *BedAllocator
	Theatres *TheatreScheduler
	Blood    *BloodInventoryMatcher

	publisher EventPublisher
}

func NewAllocationGateway(db *gorm.DB, publisher EventPublisher) *AllocationGateway {
	return &AllocationGateway{
		Beds:      NewBedAllocator(db),
		Theatres:  NewTheatreScheduler(db),
		Blood:     NewBloodInventoryMatcher(db),
		publisher: publisher,
	}
}

func (g *AllocationGateway) publish(events []Event) {
	if g.publisher == nil {
		return
	}
	for _, ev := range events {
		g.publisher.Publish(ev)
	}
}

func (g *AllocationGateway) AllocateBed(actor string, body *types.AllocateBedRequestBody) (*models.BedAllocation, error) {
	stay, events, err := g.Beds.Allocate(actor, body)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return stay, nil
}

func (g *AllocationGateway) TransferBed(actor string, body *types.TransferBedRequestBody) (*models.BedAllocation, error) {
	stay, events, err := g.Beds.Transfer(actor, body)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return stay, nil
}

func (g *AllocationGateway) DischargeBed(actor string, stayID uint) (*models.BedAllocation, error) {
	stay, events, err := g.Beds.Discharge(actor, stayID)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return stay, nil
}

func (g *AllocationGateway) SetBedMaintenance(bedID uint) (*models.Bed, error) {
	bed, events, err := g.Beds.SetMaintenance(bedID)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return bed, nil
}

func (g *AllocationGateway) ReturnBedToService(bedID uint) (*models.Bed, error) {
	bed, events, err := g.Beds.ReturnToService(bedID)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return bed, nil
}

func (g *AllocationGateway) ScheduleSurgery(actor string, body *types.ScheduleSurgeryRequestBody) (*models.Surgery, error) {
	surgery, events, err := g.Theatres.Schedule(actor, body)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return surgery, nil
}

func (g *AllocationGateway) UpdateSurgeryStatus(actor string, surgeryID uint, next types.SurgeryStatus) (*models.Surgery, error) {
	surgery, events, err := g.Theatres.UpdateStatus(actor, surgeryID, next)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return surgery, nil
}

func (g *AllocationGateway) SubmitBloodRequest(actor string, body *types.CreateBloodRequestBody) (*models.BloodRequest, error) {
	request, events, err := g.Blood.Submit(actor, body)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return request, nil
}

func (g *AllocationGateway) FulfillBloodRequest(actor string, requestID uint, body *types.FulfillBloodRequestBody) (*models.BloodRequest, error) {
	request, events, err := g.Blood.Fulfill(actor, requestID, body)
	if err != nil {
		return nil, err
	}
	g.publish(events)
	return request, nil
}

func (g *AllocationGateway) ReleaseBloodUnit(unitID uint) (*models.BloodUnit, error) {
	return g.Blood.ReleaseFromTesting(unitID)
}

func (g *AllocationGateway) DiscardBloodUnit(unitID uint) (*models.BloodUnit, error) {
	return g.Blood.DiscardUnit(unitID)
}

func (g *AllocationGateway) ExpireBloodUnits() (int64, error) {
	return g.Blood.ExpireUnits(time.Now())
}
