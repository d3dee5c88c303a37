package browser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedLocator is returned for a locator strategy outside Strategies.
var ErrUnsupportedLocator = errors.New("unsupported locator strategy")

// DefaultLocatorTimeout bounds how long element lookups wait when the
// caller does not pass a timeout.
const DefaultLocatorTimeout = 15 * time.Second

// Strategy is the way a Locator value is interpreted.
type Strategy string

const (
	ByID          Strategy = "id"
	ByCSS         Strategy = "css"
	ByXPath       Strategy = "xpath"
	ByName        Strategy = "name"
	ByTag         Strategy = "tag"
	ByClass       Strategy = "class"
	ByLink        Strategy = "link"
	ByPartialLink Strategy = "partialLink"
)

// Strategies lists every supported strategy in schema order.
var Strategies = []Strategy{ByID, ByCSS, ByXPath, ByName, ByTag, ByClass, ByLink, ByPartialLink}

// StrategyNames returns the strategies as plain strings for a schema enum.
func StrategyNames() []string {
	names := make([]string, len(Strategies))
	for i, s := range Strategies {
		names[i] = string(s)
	}
	return names
}

// Locator identifies a page element.
type Locator struct {
	By      Strategy
	Value   string
	Timeout time.Duration
}

// NewLocator validates by and returns a Locator. A non-positive timeout
// selects DefaultLocatorTimeout.
func NewLocator(by, value string, timeout time.Duration) (Locator, error) {
	s, err := ParseStrategy(by)
	if err != nil {
		return Locator{}, err
	}
	if timeout <= 0 {
		timeout = DefaultLocatorTimeout
	}
	return Locator{By: s, Value: value, Timeout: timeout}, nil
}

// ParseStrategy converts a strategy name. "partialLink" is matched
// case-insensitively like the other names.
func ParseStrategy(by string) (Strategy, error) {
	for _, s := range Strategies {
		if strings.EqualFold(string(s), by) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedLocator, by)
}

// Selector translates the locator into the driver's selector syntax.
func (l Locator) Selector() (string, error) {
	switch l.By {
	case ByID:
		return "css=[id=" + strconv.Quote(l.Value) + "]", nil
	case ByCSS, ByTag:
		return "css=" + l.Value, nil
	case ByXPath:
		return "xpath=" + l.Value, nil
	case ByName:
		return "css=[name=" + strconv.Quote(l.Value) + "]", nil
	case ByClass:
		return "css=[class~=" + strconv.Quote(l.Value) + "]", nil
	case ByLink:
		return "css=a:text-is(" + strconv.Quote(l.Value) + ")", nil
	case ByPartialLink:
		return "css=a:has-text(" + strconv.Quote(l.Value) + ")", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLocator, l.By)
	}
}

// TimeoutMillis returns the locator timeout in the unit the driver expects.
func (l Locator) TimeoutMillis() float64 {
	if l.Timeout <= 0 {
		return float64(DefaultLocatorTimeout.Milliseconds())
	}
	return float64(l.Timeout.Milliseconds())
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%s", l.By, l.Value)
}
