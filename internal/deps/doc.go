// Package deps probes the external binaries the pipeline shells out to.
package deps
