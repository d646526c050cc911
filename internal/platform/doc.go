package platform

// Package platform contains OS/platform integration and external tooling glue:
// filesystem helpers, source URL resolution with playlist enumeration via
// ytdlp, and opening the destination folder in the system file manager.
