// Package fileutil provides file copy and move helpers used when staging
// pipeline artifacts between project directories.
package fileutil
