package util

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandUser(t *testing.T) {
	assert.Equal(t, os.ExpandEnv("$HOME/abc"), ExpandUser("~/abc"))
	assert.Equal(t, "/etc/luna.yml", ExpandUser("/etc/luna.yml"))
	assert.Equal(t, "~", ExpandUser("~"))
}
