package httpclient

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesTimeout(t *testing.T) {
	t.Parallel()

	client := New(3 * time.Second)
	assert.Equal(t, 3*time.Second, client.Timeout)

	client = New(0)
	assert.Equal(t, DefaultTimeout, client.Timeout)
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	err := NewHTTPError(502, "https://example.com/list.m3u", "unexpected registry response")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "https://example.com/list.m3u")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, 502, httpErr.StatusCode)
}
