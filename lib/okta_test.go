package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOktaClientRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "example.okta.com", "://nope"} {
		_, err := NewOktaClient(raw, false)
		assert.Error(t, err, raw)
	}
}

func TestAuthnSessionSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/authn", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jdoe", body["username"])
		assert.Equal(t, "hunter2", body["password"])
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"status": "SUCCESS",
			"sessionToken": "20111aZ",
			"_embedded": {"user": {"profile": {"login": "jdoe@example.com"}}}
		}`)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)
	client.SetUsername("jdoe")

	require.NoError(t, client.AuthnSession(context.Background(), "hunter2"))
	assert.Equal(t, "jdoe@example.com", client.Username())
	assert.Equal(t, "20111aZ", client.sessionToken)
}

func TestAuthnSessionNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "MFA_REQUIRED"}`)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)
	client.SetUsername("jdoe")

	err = client.AuthnSession(context.Background(), "hunter2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MFA_REQUIRED")
}

func TestAuthnSessionAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errorCode": "E0000004", "errorSummary": "Authentication failed"}`)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)
	client.SetUsername("jdoe")

	err = client.AuthnSession(context.Background(), "wrong")
	require.Error(t, err)
	var apierr *APIError
	require.ErrorAs(t, err, &apierr)
	assert.Equal(t, "E0000004", apierr.ErrorCode)
	assert.Contains(t, err.Error(), "Authentication failed")
}

func TestUserLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/jdoe@example.com", r.URL.Path)
		assert.Equal(t, "SSWS token123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "00u1", "profile": {"login": "jdoe@example.com"}}`)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)
	client.UseAPIKey("token123")

	user, err := client.User(context.Background(), "jdoe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "00u1", user.ID)
}

func TestUserLookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errorCode": "E0000007", "errorSummary": "Not found: Resource not found: ghost (User)"}`)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)
	client.UseAPIKey("token123")

	_, err = client.User(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost was not found")
}

func TestSAMLResponse(t *testing.T) {
	const assertion = "PHNhbWxwOlJlc3BvbnNlPg=="
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("onetimetoken")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body>
			<form method="POST" action="https://signin.aws.amazon.com/saml">
			<input type="hidden" name="SAMLResponse" value=%q/>
			<input type="hidden" name="RelayState" value=""/>
			</form></body></html>`, assertion)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)
	client.sessionToken = "20111aZ"

	got, err := client.SAMLResponse(context.Background(), server.URL+"/app/amazon_aws/0oa1/sso/saml")
	require.NoError(t, err)
	assert.Equal(t, assertion, got)
	assert.Equal(t, "20111aZ", gotToken)
}

// The assertion arrives HTML-escaped inside an attribute; the document
// parser must hand back the decoded value.
func TestSAMLResponseUnescapesEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<input name="SAMLResponse" value="abc&#x2b;def&#x3d;"/>
			</body></html>`)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)

	got, err := client.SAMLResponse(context.Background(), server.URL+"/app/amazon_aws/0oa1/sso/saml")
	require.NoError(t, err)
	assert.Equal(t, "abc+def=", got)
}

func TestSAMLResponseMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>Sign in required</body></html>`)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)

	_, err = client.SAMLResponse(context.Background(), server.URL+"/app/amazon_aws/0oa1/sso/saml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SAMLResponse")
}

func TestGetUsesBearerOverAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	client, err := NewOktaClient(server.URL, false)
	require.NoError(t, err)
	client.UseAPIKey("token123")
	client.UseAccessToken("at-123")

	_, _, err = client.Get(context.Background(), "/api/v1/anything")
	require.NoError(t, err)
}
