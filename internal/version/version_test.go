package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersionInfo(t *testing.T) {
	oldVersion, oldBuildTime := Version, BuildTime
	t.Cleanup(func() { Version, BuildTime = oldVersion, oldBuildTime })

	Version = "1.2.3"
	BuildTime = "2024-05-01T12:00:00Z"

	assert.Equal(t, "1.2.3", GetVersion())
	assert.Equal(t, "2024-05-01T12:00:00Z", GetBuildTime())
	assert.Contains(t, GetVersionInfo(), "gcal v1.2.3 (built 2024-05-01T12:00:00Z")
}
