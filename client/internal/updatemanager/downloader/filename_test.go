package downloader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	values := FileNameValues{
		AppID:       "com.example.app",
		Version:     "2.0.0",
		Build:       "42",
		Environment: "beta",
		ArtifactURL: "https://h/d/a.apk?token=1",
	}

	testCases := []struct {
		name     string
		pattern  string
		expected string
	}{
		{name: "default", pattern: "", expected: "com.example.app-2.0.0-beta.apk"},
		{name: "custom", pattern: "{appId}_{version}_{build}.bin", expected: "com.example.app_2.0.0_42.bin"},
		{name: "no placeholders", pattern: "update.apk", expected: "update.apk"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FileName(tc.pattern, values))
		})
	}
}

func TestFileName_SanitizesValues(t *testing.T) {
	name := FileName("{appId}-{version}{ext}", FileNameValues{AppID: "a/b", Version: "../1", ArtifactURL: "/x"})
	assert.Equal(t, "a_b-__1", name)
}
