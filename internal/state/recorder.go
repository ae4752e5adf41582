package state

import (
	"log"
	"time"

	"github.com/troupelabs/troupe/internal/progress"
	"github.com/troupelabs/troupe/pkg/models"
)

// Recorder persists progress events from a bus into the history database.
type Recorder struct {
	db *DB
}

// NewRecorder creates a recorder writing to the given database.
func NewRecorder(db *DB) *Recorder {
	return &Recorder{db: db}
}

// Attach subscribes the recorder to a bus and returns the disposer.
// Storage errors are logged, never surfaced to the publisher.
func (r *Recorder) Attach(bus *progress.Bus) func() {
	return bus.Subscribe(func(ev models.WorkflowProgress) {
		if err := r.db.AppendEvent(ev, time.Now()); err != nil {
			log.Printf("[state] record progress event: %v", err)
		}
	})
}
