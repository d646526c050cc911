package model

// Package model defines domain data structures shared by the pipeline stages:
// resolved items and their stream descriptors, download tasks, pipeline runs
// with their state machine, progress events, and the per-item status stream
// of a collection run.
