package background

import (
	"context"
	"log"
	"sync"
	"time"

	"stockplan/internal/jobs"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages the recurring maintenance jobs.
type JobScheduler struct {
	scheduler  gocron.Scheduler
	expirySvc  *jobs.ExpirySweepService
	reorderSvc *jobs.ReorderAlertService
	registered map[string]gocron.Job
	mu         sync.RWMutex
}

func NewJobScheduler(expirySvc *jobs.ExpirySweepService, reorderSvc *jobs.ReorderAlertService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:  scheduler,
		expirySvc:  expirySvc,
		reorderSvc: reorderSvc,
		registered: make(map[string]gocron.Job),
	}
	js.registerJobs()
	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Expiry sweep - hourly
	expiryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.expirySvc.ScheduledSweep, context.Background()),
		gocron.WithName("lot-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create expiry sweep job: %v", err)
	} else {
		js.track("expiry-sweep", expiryJob)
	}

	// Reorder alerts - daily
	reorderJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.reorderSvc.ScheduledReorderCheck, context.Background()),
		gocron.WithName("reorder-alerts"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create reorder alert job: %v", err)
	} else {
		js.track("reorder-alerts", reorderJob)
	}
}

func (js *JobScheduler) track(name string, job gocron.Job) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.registered[name] = job
}
