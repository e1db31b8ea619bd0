package boot

import (
	"log"
	"time"

	"hms/src/allocator"
	"hms/src/db"
	"hms/src/lib"
	"hms/src/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Bed{},
		&models.BedAllocation{},
		&models.BedTransfer{},
		&models.Theatre{},
		&models.Surgery{},
		&models.BloodUnit{},
		&models.BloodRequest{},
		&models.BloodIssue{},
		&models.Donor{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBroker() {
	go lib.KafkaCreateTopics("beds-events", "ot-events", "bloodbank-events")
	lib.KafkaConsumer("hms", "beds-events", "ot-events", "bloodbank-events")
}

// InitScheduler starts the hourly blood unit expiry sweep. Expiry is a
// calendar fact, not a request side effect, so it runs here instead of in
// the matcher.
func InitScheduler(gateway *allocator.AllocationGateway) {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			swept, err := gateway.ExpireBloodUnits()
			if err != nil {
				log.Printf("Error sweeping expired blood units: %s\n", err.Error())
				return
			}
			if swept > 0 {
				log.Printf("Expired %d blood units past their shelf date\n", swept)
			}
		}),
	)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	log.Printf("Job ID: %s\n", j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while shutting stopping Scheduler. Check logs for info")
		return
	}
}
