package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/ytget/ytdlp/v2"
)

// Timeout constants
const (
	DefaultListTimeout = 60 * time.Second
)

// YTDLPLister enumerates YouTube playlists using the ytdlp library
type YTDLPLister struct {
	timeout time.Duration
}

// NewYTDLPLister creates a new playlist lister
func NewYTDLPLister() *YTDLPLister {
	return &YTDLPLister{
		timeout: DefaultListTimeout,
	}
}

// SetTimeout sets the timeout for listing operations
func (y *YTDLPLister) SetTimeout(timeout time.Duration) {
	y.timeout = timeout
}

// ListPlaylist returns every entry of the playlist in source order
func (y *YTDLPLister) ListPlaylist(ctx context.Context, playlistID string) ([]PlaylistEntry, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("empty playlist ID")
	}

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", err)
	}

	entries := make([]PlaylistEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, PlaylistEntry{
			VideoID: it.VideoID,
			Title:   it.Title,
		})
	}
	return entries, nil
}
