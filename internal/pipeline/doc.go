package pipeline

// Package pipeline drives one URL through resolution, stream selection,
// fetching, caption extraction and ffmpeg finalization. Collection URLs are
// processed one item at a time, and a failed item never stops the items after
// it. Callers observe a run only through the status and progress callbacks and
// the per-item outcomes returned at the end.
