// Package logging provides structured JSON logging with file rotation for docport.
// Logs go to a rotating file under the data directory plus stderr, so the
// retrieval pipeline can be traced without attaching a debugger to the service.
package logging
