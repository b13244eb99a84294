// Package stage defines the handler contract each pipeline stage implements
// for the workflow manager.
package stage
