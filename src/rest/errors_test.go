package rest

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestCheckResponseSuccess(t *testing.T) {
	assert.NoError(t, CheckResponse(response(http.StatusOK, `{}`)))
	assert.NoError(t, CheckResponse(response(http.StatusNoContent, ``)))
}

func TestCheckResponseAPIError(t *testing.T) {
	err := CheckResponse(response(http.StatusForbidden, `{"message": "Missing Permissions", "code": 50013}`))
	require.Error(t, err)

	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Status)
	assert.Equal(t, "Missing Permissions", httpErr.Body.Message)
	assert.Equal(t, uint(50013), httpErr.Body.Code)
	assert.Contains(t, httpErr.Error(), "Missing Permissions")
	assert.False(t, httpErr.IsNotFound())
}

func TestCheckResponseNonJSONBody(t *testing.T) {
	err := CheckResponse(response(http.StatusNotFound, `not json`))
	require.Error(t, err)

	httpErr, ok := err.(*HTTPError)
	require.True(t, ok)
	assert.True(t, httpErr.IsNotFound())
	assert.Equal(t, []byte(`not json`), httpErr.Raw)
	assert.Equal(t, "http 404", httpErr.Error())
}
