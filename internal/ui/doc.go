package ui

// Package ui contains the console front end: it renders pipeline status lines
// and a progress bar for a terminal, or plain lines when output is redirected.
