package config

import (
	"fyne.io/fyne/v2"

	"github.com/ytget/ytmux/internal/model"
	"github.com/ytget/ytmux/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyLastDirectory   = "lastDirectory"
	KeyResolution      = "resolution"
	KeyCaptionLanguage = "captionLanguage"
)

// Default values
const (
	DefaultResolution      = "1080p"
	DefaultCaptionLanguage = "en"
	FallbackDownloadDir    = "/tmp/downloads"
)

// Settings manages persisted user choices
type Settings struct {
	prefs fyne.Preferences
}

// NewSettings creates a new settings manager over the app's preferences
func NewSettings(app fyne.App) *Settings {
	return &Settings{prefs: app.Preferences()}
}

// LastDirectory returns the last used destination directory.
// An empty string means no run has stored one yet.
func (s *Settings) LastDirectory() string {
	return s.prefs.String(KeyLastDirectory)
}

// SetLastDirectory stores the last used destination directory
func (s *Settings) SetLastDirectory(dir string) {
	s.prefs.SetString(KeyLastDirectory, dir)
}

// DownloadDirectory returns the last directory, or the user's Downloads folder
func (s *Settings) DownloadDirectory() string {
	if dir := s.LastDirectory(); dir != "" {
		return dir
	}
	dir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		return FallbackDownloadDir
	}
	return dir
}

// Resolution returns the preferred video resolution
func (s *Settings) Resolution() string {
	return s.prefs.StringWithFallback(KeyResolution, DefaultResolution)
}

// SetResolution stores the preferred video resolution in "<height>p" form
func (s *Settings) SetResolution(resolution string) {
	resolution = model.NormalizeResolution(resolution)
	if resolution == "" {
		resolution = DefaultResolution
	}
	s.prefs.SetString(KeyResolution, resolution)
}

// CaptionLanguage returns the preferred caption language code
func (s *Settings) CaptionLanguage() string {
	return s.prefs.StringWithFallback(KeyCaptionLanguage, DefaultCaptionLanguage)
}

// SetCaptionLanguage stores the preferred caption language code
func (s *Settings) SetCaptionLanguage(lang string) {
	if lang == "" {
		lang = DefaultCaptionLanguage
	}
	s.prefs.SetString(KeyCaptionLanguage, lang)
}
