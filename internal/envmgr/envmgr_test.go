package envmgr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConda_Wrap(t *testing.T) {
	env := NewConda("halofit")
	argv := env.Wrap([]string{"python", "rescaling_code/xi_rescaling_factor.py"})
	assert.Equal(t, []string{
		"conda", "run", "--no-capture-output", "-n", "halofit",
		"python", "rescaling_code/xi_rescaling_factor.py",
	}, argv)
}
