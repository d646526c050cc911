package download

// Package download implements the fetcher: it streams one or two selected
// media streams to local files, reporting byte progress as it goes. The paired
// variant runs both transfers concurrently and joins them before returning.
