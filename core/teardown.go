package core

import (
	log "github.com/sirupsen/logrus"
)

type teardownEntry struct {
	name    string
	release func()
}

// Teardown releases resources in the reverse order they were registered.
// Every release function runs at most once.
type Teardown struct {
	entries []teardownEntry
}

// Push registers a release function for a resource that was just created.
func (t *Teardown) Push(name string, release func()) {
	t.entries = append(t.entries, teardownEntry{name: name, release: release})
}

// PushStage registers the Destroy of a stage that was just created.
func (t *Teardown) PushStage(name string, stage Destroyable) {
	t.Push(name, stage.Destroy)
}

// Len returns the number of resources not yet released.
func (t *Teardown) Len() int {
	return len(t.entries)
}

// Run releases everything registered so far, last in first out.
// It's safe to call multiple times.
func (t *Teardown) Run() {
	for len(t.entries) > 0 {
		last := len(t.entries) - 1
		entry := t.entries[last]
		t.entries = t.entries[:last]

		log.WithField("resource", entry.name).Debug("releasing")
		entry.release()
	}
}
