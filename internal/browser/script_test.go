package browser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_EncodesArguments(t *testing.T) {
	expr, err := call("write", "el-3", `O'Brien "Jr"`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(expr, helperJS))
	assert.True(t, strings.HasSuffix(expr, `window.__cva.write("el-3", "O'Brien \"Jr\"")`))
}

func TestCall_NoArguments(t *testing.T) {
	expr, err := call("frame")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(expr, "window.__cva.frame()"))
}

func TestCall_UnencodableArgument(t *testing.T) {
	_, err := call("value", make(chan int))
	assert.Error(t, err)
}

func TestHelperJS_CoversEveryMethod(t *testing.T) {
	for _, m := range []string{"scan(", "value(", "attached(", "write(", "observe(", "unobserve(", "frame("} {
		assert.Contains(t, helperJS, m)
	}
	assert.NotContains(t, helperJS, "`")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, DefaultSettle, opts.Settle)
	assert.True(t, opts.Headless)
}

func TestError(t *testing.T) {
	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := &Error{URL: "https://jobs.example.com", Message: "navigation failed", Cause: cause}

	assert.Equal(t, "browser error for https://jobs.example.com: navigation failed: net::ERR_NAME_NOT_RESOLVED", err.Error())
	assert.ErrorIs(t, err, cause)
}
