package entities

import (
	"fmt"
	"strings"
)

// Platform identifies the video-conference platform a session runs on
type Platform string

const (
	PlatformZoom  Platform = "zoom"
	PlatformTeams Platform = "teams"
	PlatformMeet  Platform = "meet"
)

// ParsePlatform parses a platform name
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(s) {
	case "zoom":
		return PlatformZoom, nil
	case "teams":
		return PlatformTeams, nil
	case "meet":
		return PlatformMeet, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// PlatformFromURL guesses the platform from a meeting URL. Unknown hosts
// fall back to Zoom, matching provider behavior.
func PlatformFromURL(url string) Platform {
	switch {
	case strings.Contains(url, "zoom"):
		return PlatformZoom
	case strings.Contains(url, "meet.google"):
		return PlatformMeet
	case strings.Contains(url, "teams"):
		return PlatformTeams
	}
	return PlatformZoom
}
