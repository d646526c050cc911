package media

// Package media wraps the YouTube metadata/stream library (github.com/kkdai/youtube)
// behind small interfaces. It turns videos into model.SourceItem values, picks
// the concrete streams for a requested mode, opens stream bodies for the
// fetcher, and extracts a caption track as SRT.
