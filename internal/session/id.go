package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/standardbeagle/webdriver-mcp/internal/browser"
)

// NewID returns a session id of the form <kind>_<unix-millis>_<8 hex chars>.
// The random suffix keeps two sessions opened in the same millisecond apart.
func NewID(kind browser.Kind) string {
	return newIDAt(kind, time.Now())
}

func newIDAt(kind browser.Kind, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s", kind, now.UnixMilli(), suffix)
}
