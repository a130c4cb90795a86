package backtrace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationString(t *testing.T) {
	assert.Equal(t, "main.go:42", Location{File: "main.go", Line: 42}.String())
	assert.Equal(t, Unknown, Location{}.String())
}

func TestRuntimeProviderCapturesCaller(t *testing.T) {
	bt := RuntimeProvider{}.Capture()
	require.NotEmpty(t, bt)

	frames := RuntimeResolver{}.ResolveBacktrace(bt)
	require.NotEmpty(t, frames)

	var found bool
	for _, f := range frames {
		if strings.Contains(f, "TestRuntimeProviderCapturesCaller") {
			found = true
		}
	}
	assert.True(t, found, "captured stack misses the caller:\n%s", strings.Join(frames, "\n"))
}

func TestRuntimeResolverEmptyBacktrace(t *testing.T) {
	assert.Equal(t, []string{Unknown}, RuntimeResolver{}.ResolveBacktrace(nil))
	assert.Equal(t, []string{Unknown}, RuntimeResolver{}.ResolveBacktrace(Backtrace{}))
}

func TestRuntimeResolverUnknownLocation(t *testing.T) {
	_, ok := RuntimeResolver{}.ResolveLocation(0)
	assert.False(t, ok)
}

func TestNopProviderAndResolver(t *testing.T) {
	assert.Nil(t, NopProvider{}.Capture())
	assert.Equal(t, []string{Unknown}, NopResolver{}.ResolveBacktrace(Backtrace{1, 2, 3}))

	_, ok := NopResolver{}.ResolveLocation(0x1234)
	assert.False(t, ok)
}
