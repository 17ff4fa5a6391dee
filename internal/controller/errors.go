package controller

import "errors"

var (
	// ErrFaultThreshold is returned by Run when consecutive hard device
	// faults reach the configured threshold. The device is assumed gone;
	// external supervision must restart the process to recover.
	ErrFaultThreshold = errors.New("controller: device fault threshold reached")
)
