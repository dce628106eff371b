package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDaemonArgs(t *testing.T) {
	assert.Equal(t, []string{"daemon"}, DaemonArgs(""))
	assert.Equal(t, []string{"daemon", "--config", "/tmp/tabmon.yaml"}, DaemonArgs("/tmp/tabmon.yaml"))
}

func TestStartDaemonWithPath_MissingBinary(t *testing.T) {
	err := StartDaemonWithPath("/nonexistent/tabmon", "")
	assert.Error(t, err)
}
