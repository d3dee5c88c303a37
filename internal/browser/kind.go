package browser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedBrowser is returned for any browser tag outside the closed set of kinds.
var ErrUnsupportedBrowser = errors.New("unsupported browser")

// Kind identifies a browser family that can back a session.
type Kind string

const (
	Chrome  Kind = "chrome"
	Firefox Kind = "firefox"
	Edge    Kind = "edge"
	Safari  Kind = "safari"
)

// Kinds lists every supported browser kind in the order tools advertise them.
var Kinds = []Kind{Chrome, Firefox, Edge, Safari}

// KindNames returns the supported kinds as plain strings, suitable for a schema enum.
func KindNames() []string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = string(k)
	}
	return names
}

// ParseKind converts a tag into a Kind. Matching is case-insensitive.
func ParseKind(tag string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(tag))); k {
	case Chrome, Firefox, Edge, Safari:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedBrowser, tag)
	}
}

// Options are the caller-facing knobs shared by every browser kind.
type Options struct {
	Headless  bool
	Arguments []string
}

// Spec describes the browser a launcher should start. The set of
// implementations is closed: ChromeSpec, FirefoxSpec, EdgeSpec and SafariSpec.
type Spec interface {
	Kind() Kind
	spec()
}

// ChromeSpec launches Chromium (or branded Chrome when Channel is set).
type ChromeSpec struct {
	Options
	// Channel selects a branded build such as "chrome" or "chrome-beta".
	Channel string
}

// FirefoxSpec launches Firefox.
type FirefoxSpec struct {
	Options
	// Prefs are written into the profile's user preferences.
	Prefs map[string]interface{}
}

// EdgeSpec launches Microsoft Edge through the Chromium "msedge" channel.
type EdgeSpec struct {
	Options
}

// SafariSpec launches WebKit, the engine behind Safari. Safari has no
// command-line switches, so Arguments are passed to WebKit unchanged.
type SafariSpec struct {
	Options
}

func (ChromeSpec) Kind() Kind  { return Chrome }
func (FirefoxSpec) Kind() Kind { return Firefox }
func (EdgeSpec) Kind() Kind    { return Edge }
func (SafariSpec) Kind() Kind  { return Safari }

func (ChromeSpec) spec()  {}
func (FirefoxSpec) spec() {}
func (EdgeSpec) spec()    {}
func (SafariSpec) spec()  {}

// NewSpec builds the variant for kind carrying opts.
func NewSpec(kind Kind, opts Options) (Spec, error) {
	switch kind {
	case Chrome:
		return ChromeSpec{Options: opts}, nil
	case Firefox:
		return FirefoxSpec{Options: opts}, nil
	case Edge:
		return EdgeSpec{Options: opts}, nil
	case Safari:
		return SafariSpec{Options: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBrowser, kind)
	}
}

// SpecOptions returns the shared options carried by any Spec variant.
func SpecOptions(s Spec) Options {
	switch v := s.(type) {
	case ChromeSpec:
		return v.Options
	case FirefoxSpec:
		return v.Options
	case EdgeSpec:
		return v.Options
	case SafariSpec:
		return v.Options
	default:
		return Options{}
	}
}
