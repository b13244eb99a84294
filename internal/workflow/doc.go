// Package workflow drives queue items through the dubbing pipeline. A single
// processing loop claims the oldest actionable item, hands it to the stage
// registered for its status, and persists the resulting transition. Items
// being processed emit heartbeats so work orphaned by a crash can be
// reclaimed and resumed from the previous stable status.
package workflow
