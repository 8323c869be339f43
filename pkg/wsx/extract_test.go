package wsx_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/scribe/pkg/wsx"
)

func upgradeRequest(t *testing.T, query url.Values) *http.Request {
	t.Helper()

	target := "/v1/session/ws"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func TestExtractorToken(t *testing.T) {
	t.Parallel()

	t.Run("authorization header wins", func(t *testing.T) {
		req := upgradeRequest(t, url.Values{"access_token": {"from-query"}})
		req.Header.Set("Authorization", "Bearer from-header")

		token, err := wsx.Extractor{}.Token(req)
		require.NoError(t, err)
		require.Equal(t, "from-header", token)
	})

	t.Run("query header form requires opt-in", func(t *testing.T) {
		query := url.Values{"authorization": {"Bearer from-query-header"}}

		_, err := wsx.Extractor{}.Token(upgradeRequest(t, query))
		require.ErrorIs(t, err, wsx.ErrMissingCredential)

		token, err := wsx.Extractor{AllowQueryHeader: true}.Token(upgradeRequest(t, query))
		require.NoError(t, err)
		require.Equal(t, "from-query-header", token)
	})

	t.Run("query header form outranks access_token", func(t *testing.T) {
		query := url.Values{
			"authorization": {"Bearer from-query-header"},
			"access_token":  {"from-query"},
		}

		token, err := wsx.Extractor{AllowQueryHeader: true}.Token(upgradeRequest(t, query))
		require.NoError(t, err)
		require.Equal(t, "from-query-header", token)
	})

	t.Run("access_token fallback", func(t *testing.T) {
		query := url.Values{"access_token": {"from-query"}}

		token, err := wsx.Extractor{}.Token(upgradeRequest(t, query))
		require.NoError(t, err)
		require.Equal(t, "from-query", token)
	})

	t.Run("malformed query header falls through to access_token", func(t *testing.T) {
		query := url.Values{
			"authorization": {"Basic from-query-header"},
			"access_token":  {"from-query"},
		}

		token, err := wsx.Extractor{AllowQueryHeader: true}.Token(upgradeRequest(t, query))
		require.NoError(t, err)
		require.Equal(t, "from-query", token)
	})

	t.Run("nothing present", func(t *testing.T) {
		_, err := wsx.Extractor{}.Token(upgradeRequest(t, nil))
		require.ErrorIs(t, err, wsx.ErrMissingCredential)
	})
}
