package data_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/rdp-proxy/data"
	"github.com/jrsteele09/rdp-proxy/internal/config"
	rdperrors "github.com/jrsteele09/rdp-proxy/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "access-token-1"

type seenRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	Body          string
}

type recorder struct {
	mu   sync.Mutex
	seen []seenRequest
}

func (r *recorder) requests() []seenRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]seenRequest(nil), r.seen...)
}

func setupClient(t *testing.T, status int, response string) (*data.Client, *recorder) {
	t.Helper()
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.seen = append(rec.seen, seenRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			Body:          string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	client, err := data.NewClient(server.URL, config.RDP{})
	require.NoError(t, err)
	return client, rec
}

func TestFetchESG(t *testing.T) {
	client, seen := setupClient(t, http.StatusOK, `{"universe":[{"Instrument":"IBM.N"}],"data":[["IBM.N",79.5]]}`)

	result, err := client.FetchESG(context.Background(), "IBM.N", testToken)
	require.NoError(t, err)

	reqs := seen.requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/data/environmental-social-governance/v2/views/basic", req.Path)
	require.Equal(t, "universe=IBM.N", req.Query)
	require.Equal(t, "Bearer "+testToken, req.Authorization)

	obj, ok := result.(map[string]any)
	require.True(t, ok)
	row := obj["data"].([]any)[0].([]any)
	require.Equal(t, json.Number("79.5"), row[1])
}

func TestFetchNewsHeadlines(t *testing.T) {
	client, seen := setupClient(t, http.StatusOK, `{"data":[{"storyId":"urn:newsml:1"}]}`)

	result, err := client.FetchNewsHeadlines(context.Background(), "LSEG.L", testToken)
	require.NoError(t, err)
	require.NotNil(t, result)

	req := seen.requests()[0]
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/data/news/v1/headlines", req.Path)
	require.Equal(t, "query=LSEG.L", req.Query)
	require.Equal(t, "Bearer "+testToken, req.Authorization)
}

func TestQueryIsEscaped(t *testing.T) {
	client, seen := setupClient(t, http.StatusOK, `{}`)

	_, err := client.FetchNewsHeadlines(context.Background(), "IBM.N AND Language:LEN", testToken)
	require.NoError(t, err)
	require.Equal(t, "query=IBM.N+AND+Language%3ALEN", seen.requests()[0].Query)
}

func TestLookupSymbologyBody(t *testing.T) {
	tests := []struct {
		name   string
		target data.Target
		want   string
	}{
		{
			name:   "isin",
			target: data.TargetSymbology,
			want:   `{"from":[{"identifierTypes":["RIC"],"values":["IBM.N"]}],"to":[{"identifierTypes":["ISIN","ExchangeTicker"]}],"reference":["name","status","classification"],"type":"auto"}`,
		},
		{
			name:   "permid",
			target: data.TargetPermID,
			want:   `{"from":[{"identifierTypes":["RIC"],"values":["IBM.N"]}],"to":[{"objectTypes":["organization"],"identifierTypes":["PermID"]}],"reference":["name","status","classification"],"type":"auto"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, seen := setupClient(t, http.StatusOK, `{"data":[]}`)

			_, err := client.LookupSymbology(context.Background(), "IBM.N", tt.target, testToken)
			require.NoError(t, err)

			req := seen.requests()[0]
			require.Equal(t, http.MethodPost, req.Method)
			require.Equal(t, "/discovery/symbology/v1/lookup", req.Path)
			require.Equal(t, "Bearer "+testToken, req.Authorization)
			require.Equal(t, tt.want, req.Body)
		})
	}
}

func TestLookupSymbologyResponse(t *testing.T) {
	body := `{"data":[{"input":[{"value":"IBM.N","identifierType":"RIC"}],"output":[{"value":"US4592001014","identifierType":"ISIN"},{"value":"IBM","identifierType":"ExchangeTicker"}]}],"requestId":"r-1"}`
	client, _ := setupClient(t, http.StatusOK, body)

	resp, err := client.LookupSymbology(context.Background(), "IBM.N", data.TargetSymbology, testToken)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	require.Equal(t, "IBM.N", resp.Data[0].Input[0].Value)
	require.Equal(t, []data.Identifier{
		{Value: "US4592001014", IdentifierType: "ISIN"},
		{Value: "IBM", IdentifierType: "ExchangeTicker"},
	}, resp.Data[0].Output)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	require.JSONEq(t, body, string(raw), "re-encoding keeps fields the client does not model")
}

func TestNonSuccessStatusIsRequestError(t *testing.T) {
	calls := map[string]func(*data.Client) error{
		"esg": func(c *data.Client) error {
			_, err := c.FetchESG(context.Background(), "IBM.N", testToken)
			return err
		},
		"news": func(c *data.Client) error {
			_, err := c.FetchNewsHeadlines(context.Background(), "IBM.N", testToken)
			return err
		},
		"symbology": func(c *data.Client) error {
			_, err := c.LookupSymbology(context.Background(), "IBM.N", data.TargetPermID, testToken)
			return err
		},
	}
	for op, call := range calls {
		t.Run(op, func(t *testing.T) {
			client, _ := setupClient(t, http.StatusUnauthorized, `{"error":{"message":"token expired"}}`)

			err := call(client)
			var reqErr *rdperrors.RequestError
			require.ErrorAs(t, err, &reqErr)
			require.Equal(t, op, reqErr.Op)
			require.Equal(t, http.StatusUnauthorized, reqErr.StatusCode)
			require.Equal(t, `{"error":{"message":"token expired"}}`, reqErr.Body)
		})
	}
}

func TestValidationBeforeNetwork(t *testing.T) {
	client, seen := setupClient(t, http.StatusOK, `{}`)
	ctx := context.Background()

	_, err := client.FetchESG(ctx, "", testToken)
	require.ErrorIs(t, err, rdperrors.ErrMissingSymbol)
	_, err = client.FetchNewsHeadlines(ctx, "IBM.N", "")
	require.ErrorIs(t, err, rdperrors.ErrNoAccessToken)
	_, err = client.LookupSymbology(ctx, "", data.TargetSymbology, testToken)
	require.ErrorIs(t, err, rdperrors.ErrMissingSymbol)
	_, err = client.LookupSymbology(ctx, "IBM.N", data.Target(7), testToken)
	require.ErrorIs(t, err, rdperrors.ErrUnknownTarget)

	require.Empty(t, seen.requests())
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]data.Target{
		"ISIN":      data.TargetSymbology,
		"symbology": data.TargetSymbology,
		"PermID":    data.TargetPermID,
		" permid ":  data.TargetPermID,
	} {
		got, err := data.ParseTarget(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := data.ParseTarget("CUSIP")
	require.ErrorIs(t, err, rdperrors.ErrUnknownTarget)
}
