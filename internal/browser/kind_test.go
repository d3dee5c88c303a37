package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		tag  string
		want Kind
	}{
		{"chrome", Chrome},
		{"Firefox", Firefox},
		{" EDGE ", Edge},
		{"safari", Safari},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseKind(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	for _, tag := range []string{"", "opera", "ie"} {
		_, err := ParseKind(tag)
		assert.ErrorIs(t, err, ErrUnsupportedBrowser, tag)
	}
}

func TestNewSpecVariants(t *testing.T) {
	opts := Options{Headless: true, Arguments: []string{"--no-sandbox"}}

	for _, kind := range Kinds {
		spec, err := NewSpec(kind, opts)
		require.NoError(t, err)
		assert.Equal(t, kind, spec.Kind())
		assert.Equal(t, opts, SpecOptions(spec))
	}

	_, err := NewSpec(Kind("lynx"), opts)
	assert.ErrorIs(t, err, ErrUnsupportedBrowser)
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, []string{"chrome", "firefox", "edge", "safari"}, KindNames())
}
