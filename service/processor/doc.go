// Package processor is the flow scheduler: it accepts execution requests,
// builds dependency levels and runs every level behind a completion barrier,
// routing step failures through the failure handler.
package processor
