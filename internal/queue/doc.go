// Package queue persists dubbing pipeline items in SQLite and exposes the
// lifecycle operations the workflow manager drives them through: enqueueing
// sources, claiming the next actionable item, recording per-stage progress
// and heartbeats, and retrying or clearing terminal items.
package queue
