package checkin

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectURLSuccessHasNoMessage(t *testing.T) {
	target := RedirectURL("http://localhost:9002", StatusSuccess, "")

	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "/check-in-status", u.Path)
	assert.Equal(t, "success", u.Query().Get("status"))
	assert.False(t, u.Query().Has("message"))
}

func TestRedirectURLDeclinedCarriesLocalizedMessage(t *testing.T) {
	target := RedirectURL("http://localhost:9002", StatusDeclined, ErrMissingInfo)

	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "declined", u.Query().Get("status"))
	assert.Equal(t, ErrMissingInfo.Message(), u.Query().Get("message"))
}

func TestRedirectURLStripsBasePathAndQuery(t *testing.T) {
	target := RedirectURL("http://host.example/some/base?x=1#frag", StatusSuccess, "")

	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "host.example", u.Host)
	assert.Equal(t, "/check-in-status", u.Path)
	assert.Equal(t, "success", u.Query().Get("status"))
	assert.Empty(t, u.Fragment)
}

func TestErrorKindMessages(t *testing.T) {
	kinds := []ErrorKind{
		ErrConfig, ErrMissingInfo, ErrAiRestriction,
		ErrPolicyUnavailable, ErrGympassValidation, ErrGympassAPI,
	}
	seen := make(map[string]ErrorKind)
	for _, k := range kinds {
		msg := k.Message()
		assert.NotEmpty(t, msg)
		assert.NotEqual(t, ErrorKind("").Message(), msg, "kind %s should not map to the fallback message", k)
		if prev, ok := seen[msg]; ok {
			t.Errorf("kinds %s and %s share the same message", prev, k)
		}
		seen[msg] = k
	}
}
