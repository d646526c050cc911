package platform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Timeout constants
const (
	DefaultResolveTimeout = 60 * time.Second
)

// URL parameters and paths
const (
	PlaylistQueryParam = "list"
	VideoQueryParam    = "v"
	PlaylistPath       = "/playlist"
)

// URL templates
const (
	YouTubeVideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

var (
	videoIDRegex    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	playlistIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{2,64}$`)

	youtubeHosts = map[string]bool{
		"youtube.com":              true,
		"www.youtube.com":          true,
		"m.youtube.com":            true,
		"music.youtube.com":        true,
		"youtube-nocookie.com":     true,
		"www.youtube-nocookie.com": true,
	}
	shortHost = "youtu.be"

	// path prefixes carrying the video ID as the next segment
	videoPathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/"}
)

// ResolutionError reports a syntactically invalid URL or an unreachable collection
type ResolutionError struct {
	URL string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %v", e.URL, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// PlaylistEntry is one enumerated collection member
type PlaylistEntry struct {
	VideoID string
	Title   string
}

// PlaylistLister enumerates the members of a collection in source order
type PlaylistLister interface {
	ListPlaylist(ctx context.Context, playlistID string) ([]PlaylistEntry, error)
}

// Resolver turns a source URL into the ordered item URLs it designates
type Resolver struct {
	lister  PlaylistLister
	timeout time.Duration
}

// NewResolver creates a resolver enumerating collections with lister
func NewResolver(lister PlaylistLister) *Resolver {
	return &Resolver{
		lister:  lister,
		timeout: DefaultResolveTimeout,
	}
}

// SetTimeout sets the timeout for collection enumeration
func (r *Resolver) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// Resolve returns the item URLs designated by rawURL: one canonical URL for a
// single item, or the collection members in source order. An empty collection
// yields an empty slice and no error.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) ([]string, error) {
	if _, err := parseSourceURL(rawURL); err != nil {
		return nil, &ResolutionError{URL: rawURL, Err: err}
	}

	if !IsCollectionURL(rawURL) {
		canonical, err := CanonicalVideoURL(rawURL)
		if err != nil {
			return nil, &ResolutionError{URL: rawURL, Err: err}
		}
		return []string{canonical}, nil
	}

	playlistID, err := ExtractPlaylistID(rawURL)
	if err != nil {
		return nil, &ResolutionError{URL: rawURL, Err: err}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	entries, err := r.lister.ListPlaylist(ctx, playlistID)
	if err != nil {
		return nil, &ResolutionError{URL: rawURL, Err: err}
	}

	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.VideoID == "" {
			continue
		}
		urls = append(urls, fmt.Sprintf(YouTubeVideoURLTemplate, e.VideoID))
	}
	return urls, nil
}

// IsCollectionURL reports whether rawURL has the collection shape: a list
// parameter on the playlist page, or a list parameter without a video.
// A watch URL that carries both v= and list= designates the single video.
func IsCollectionURL(rawURL string) bool {
	u, err := parseSourceURL(rawURL)
	if err != nil {
		return false
	}
	q := u.Query()
	if q.Get(PlaylistQueryParam) == "" {
		return false
	}
	return strings.TrimSuffix(u.Path, "/") == PlaylistPath || q.Get(VideoQueryParam) == ""
}

// ExtractPlaylistID extracts the list parameter from a collection URL
func ExtractPlaylistID(rawURL string) (string, error) {
	u, err := parseSourceURL(rawURL)
	if err != nil {
		return "", err
	}

	id := u.Query().Get(PlaylistQueryParam)
	if id == "" {
		return "", fmt.Errorf("URL does not contain playlist parameter")
	}
	if !playlistIDRegex.MatchString(id) {
		return "", fmt.Errorf("invalid playlist ID: %s", id)
	}
	return id, nil
}

// ExtractVideoID extracts the video ID from the supported YouTube URL shapes:
// watch?v=, youtu.be/<id>, /shorts/<id>, /embed/<id>, /live/<id>, /v/<id>
func ExtractVideoID(rawURL string) (string, error) {
	u, err := parseSourceURL(rawURL)
	if err != nil {
		return "", err
	}

	host := strings.ToLower(u.Hostname())
	var id string
	switch {
	case host == shortHost:
		id = strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
	case youtubeHosts[host]:
		id = u.Query().Get(VideoQueryParam)
		if id == "" {
			for _, prefix := range videoPathPrefixes {
				if strings.HasPrefix(u.Path, prefix) {
					id = strings.SplitN(strings.TrimPrefix(u.Path, prefix), "/", 2)[0]
					break
				}
			}
		}
	default:
		return "", fmt.Errorf("not a YouTube URL: %s", rawURL)
	}

	if !videoIDRegex.MatchString(id) {
		return "", fmt.Errorf("could not extract video ID from URL: %s", rawURL)
	}
	return id, nil
}

// CanonicalVideoURL returns the canonical watch URL for a YouTube item, or the
// normalized URL (lower-case scheme and host, no fragment) for other hosts.
func CanonicalVideoURL(rawURL string) (string, error) {
	u, err := parseSourceURL(rawURL)
	if err != nil {
		return "", err
	}

	host := strings.ToLower(u.Hostname())
	if host == shortHost || youtubeHosts[host] {
		id, err := ExtractVideoID(rawURL)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(YouTubeVideoURLTemplate, id), nil
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}

// parseSourceURL accepts absolute http(s) URLs only
func parseSourceURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, errors.New("empty URL")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL has no host: %s", rawURL)
	}
	return u, nil
}
