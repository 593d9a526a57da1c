package errors_test

import (
	"fmt"
	"testing"

	rdperrors "github.com/jrsteele09/rdp-proxy/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestAuthErrorMessage(t *testing.T) {
	err := &rdperrors.AuthError{Op: "login", StatusCode: 400, Body: "{\"error\":\"invalid_grant\"}\n"}
	require.Equal(t, "login: HTTP error 400: {\"error\":\"invalid_grant\"}", err.Error())
}

func TestRequestErrorWithoutBody(t *testing.T) {
	err := &rdperrors.RequestError{StatusCode: 503}
	require.Equal(t, "HTTP error 503", err.Error())
}

func TestStatusCodeThroughWrapping(t *testing.T) {
	wrapped := rdperrors.Wrapf(&rdperrors.RequestError{Op: "news", StatusCode: 401, Body: "expired"}, "fetch %s", "IBM.N")
	require.Equal(t, 401, rdperrors.StatusCode(wrapped))

	var reqErr *rdperrors.RequestError
	require.True(t, rdperrors.As(wrapped, &reqErr))
	require.Equal(t, "expired", reqErr.Body)

	require.Equal(t, 0, rdperrors.StatusCode(fmt.Errorf("plain")))
	require.Nil(t, rdperrors.Wrapf(nil, "nothing"))
}

func TestSentinelsMatch(t *testing.T) {
	err := rdperrors.Wrapf(rdperrors.ErrMissingSymbol, "esg")
	require.True(t, rdperrors.Is(err, rdperrors.ErrMissingSymbol))
	require.False(t, rdperrors.Is(err, rdperrors.ErrMissingCredentials))
}
