package memory

import (
	"log"
	"sync"
	"time"

	"github.com/adhocore/gronx"
)

// MaintenanceService runs periodic store hygiene on a cron schedule:
// FTS index rebuild and orphaned-embedding cleanup. The check ticks
// once a minute; the schedule decides whether that minute is due.
type MaintenanceService struct {
	store    *DB
	schedule string
	enabled  bool
	mu       sync.Mutex
	started  bool
	stopChan chan struct{}
	lastRun  time.Time
}

func NewMaintenanceService(store *DB, schedule string, enabled bool) *MaintenanceService {
	return &MaintenanceService{
		store:    store,
		schedule: schedule,
		enabled:  enabled,
		stopChan: make(chan struct{}),
	}
}

func (ms *MaintenanceService) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.enabled || ms.started || !ms.running() {
		return
	}
	ms.started = true

	go ms.runLoop()
}

func (ms *MaintenanceService) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !ms.running() {
		return
	}

	close(ms.stopChan)
}

func (ms *MaintenanceService) running() bool {
	select {
	case <-ms.stopChan:
		return false
	default:
		return true
	}
}

func (ms *MaintenanceService) runLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	g := gronx.New()
	for {
		select {
		case <-ms.stopChan:
			return
		case now := <-ticker.C:
			due, err := g.IsDue(ms.schedule, now)
			if err != nil {
				log.Printf("[memory] maintenance schedule %q: %v", ms.schedule, err)
				return
			}
			if !due {
				continue
			}

			ms.mu.Lock()
			// Minute-granularity schedules must not fire twice in one minute.
			if now.Sub(ms.lastRun) < time.Minute {
				ms.mu.Unlock()
				continue
			}
			ms.lastRun = now
			ms.mu.Unlock()

			if err := ms.store.RunMaintenance(); err != nil {
				log.Printf("[memory] maintenance pass failed: %v", err)
			}
		}
	}
}

// RunMaintenance performs one hygiene pass synchronously: rebuild the
// FTS index from the items table, then drop cached embeddings whose
// items are gone.
func (m *DB) RunMaintenance() error {
	start := time.Now()

	if err := m.RebuildFTS(); err != nil {
		return err
	}
	removed, err := m.CleanOrphanEmbeddings()
	if err != nil {
		return err
	}

	log.Printf("[memory] maintenance done in %s, %d orphan embeddings removed",
		time.Since(start).Round(time.Millisecond), removed)
	return nil
}
