package mcp

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"
)

// ErrNavigationBlocked is returned for a URL outside the configured allow-list.
var ErrNavigationBlocked = errors.New("navigation blocked by allow-list")

func compileAllowList(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid navigation pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// checkNavigation allows url when any pattern matches. An empty list allows nothing.
func (s *Server) checkNavigation(url string) error {
	for _, g := range s.allow {
		if g.Match(url) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNavigationBlocked, url)
}
