package allocator

import (
	"log"

	"hms/src/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database per test so suites never
// leak state into each other. A single connection keeps every session on
// the same memory store.
func newTestDB() *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("error opening test database: %s", err.Error())
	}
	inner, err := gdb.DB()
	if err != nil {
		log.Fatalf("error accessing inner db instance: %s", err.Error())
	}
	inner.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(
		&models.Bed{},
		&models.BedAllocation{},
		&models.BedTransfer{},
		&models.Theatre{},
		&models.Surgery{},
		&models.BloodUnit{},
		&models.BloodRequest{},
		&models.BloodIssue{},
		&models.Donor{},
	); err != nil {
		log.Fatalf("error migrating test database: %s", err.Error())
	}
	return gdb
}

// recorderPublisher collects published events for assertions.
type recorderPublisher struct {
	events []Event
}

func (r *recorderPublisher) Publish(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorderPublisher) named(name string) []Event {
	out := []Event{}
	for _, ev := range r.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
