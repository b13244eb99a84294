// Command redub is the command line interface for the dubbing pipeline.
// It enqueues videos, runs the processing loop, and inspects queue and
// separation state.
package main
