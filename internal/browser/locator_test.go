package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorSelector(t *testing.T) {
	tests := []struct {
		by    string
		value string
		want  string
	}{
		{"id", "login", `css=[id="login"]`},
		{"css", "form > input.user", "css=form > input.user"},
		{"xpath", "//button[1]", "xpath=//button[1]"},
		{"name", "q", `css=[name="q"]`},
		{"tag", "h1", "css=h1"},
		{"class", "btn", `css=[class~="btn"]`},
		{"link", "Sign in", `css=a:text-is("Sign in")`},
		{"partialLink", "Sign", `css=a:has-text("Sign")`},
		{"PARTIALLINK", "Sign", `css=a:has-text("Sign")`},
	}
	for _, tt := range tests {
		t.Run(tt.by, func(t *testing.T) {
			loc, err := NewLocator(tt.by, tt.value, 0)
			require.NoError(t, err)

			sel, err := loc.Selector()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sel)
		})
	}
}

func TestLocatorQuotesValues(t *testing.T) {
	loc, err := NewLocator("id", `a"b`, 0)
	require.NoError(t, err)

	sel, err := loc.Selector()
	require.NoError(t, err)
	assert.Equal(t, `css=[id="a\"b"]`, sel)
}

func TestNewLocatorRejectsUnknownStrategy(t *testing.T) {
	_, err := NewLocator("accessibilityId", "x", 0)
	assert.ErrorIs(t, err, ErrUnsupportedLocator)

	_, err = Locator{By: "bogus", Value: "x"}.Selector()
	assert.ErrorIs(t, err, ErrUnsupportedLocator)
}

func TestLocatorTimeout(t *testing.T) {
	loc, err := NewLocator("css", "div", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLocatorTimeout, loc.Timeout)
	assert.Equal(t, float64(15000), loc.TimeoutMillis())

	loc, err = NewLocator("css", "div", 2500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, float64(2500), loc.TimeoutMillis())

	assert.Equal(t, float64(15000), Locator{By: ByCSS}.TimeoutMillis())
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, "css=#main", Locator{By: ByCSS, Value: "#main"}.String())
}
