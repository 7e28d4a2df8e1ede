package lib

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// OktaClient is the narrow surface this tool needs from an Okta org:
// authenticated GETs, a primary-credential session, and the SAML
// assertion served behind an app link. Factor challenges are not
// negotiated; a non-SUCCESS login status is terminal.
type OktaClient struct {
	orgURL   *url.URL
	client   *http.Client
	username string

	apiKey       string
	accessToken  string
	sessionToken string
}

func NewOktaClient(orgURL string, insecure bool) (*OktaClient, error) {
	u, err := url.Parse(strings.TrimSuffix(orgURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid Okta org URL: %s", orgURL)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	if insecure {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &OktaClient{orgURL: u, client: client}, nil
}

func (o *OktaClient) Username() string {
	return o.username
}

func (o *OktaClient) SetUsername(username string) {
	o.username = username
}

// UseAPIKey switches authenticated requests to an Okta administrative
// API token.
func (o *OktaClient) UseAPIKey(key string) {
	o.apiKey = key
}

// UseAccessToken switches authenticated requests to an OAuth bearer
// token.
func (o *OktaClient) UseAccessToken(token string) {
	o.accessToken = token
}

// HTTPClient exposes the underlying client so that the OAuth exchange
// honors the same TLS settings.
func (o *OktaClient) HTTPClient() *http.Client {
	return o.client
}

func (o *OktaClient) absURL(path string) string {
	if strings.HasPrefix(path, "http") {
		return path
	}
	return o.orgURL.String() + path
}

func (o *OktaClient) authorize(req *http.Request) {
	switch {
	case o.accessToken != "":
		req.Header.Set("Authorization", "Bearer "+o.accessToken)
	case o.apiKey != "":
		req.Header.Set("Authorization", "SSWS "+o.apiKey)
	}
}

// APIError is the error document the Okta API returns on a non-2xx
// status.
type APIError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorSummary string `json:"errorSummary"`
}

func (e *APIError) Error() string {
	return "okta api error " + e.ErrorCode + ": " + e.ErrorSummary
}

func apiError(status int, body []byte) error {
	var apierr APIError
	if err := json.Unmarshal(body, &apierr); err == nil && apierr.ErrorCode != "" {
		return &apierr
	}
	return errors.Errorf("okta api request failed with status %d", status)
}

// Get performs an authenticated GET against an org path or an absolute
// URL and returns the body with the response headers.
func (o *OktaClient) Get(ctx context.Context, rawurl string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.absURL(rawurl), nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	o.authorize(req)
	Traceln("GET %s", req.URL)
	res, err := o.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, err
	}
	if res.StatusCode >= 400 {
		return nil, nil, apiError(res.StatusCode, body)
	}
	return body, res.Header, nil
}

type authnResult struct {
	Status       string `json:"status"`
	SessionToken string `json:"sessionToken"`
	Embedded     struct {
		User struct {
			Profile struct {
				Login string `json:"login"`
			} `json:"profile"`
		} `json:"user"`
	} `json:"_embedded"`
}

// AuthnSession trades the primary credentials for a one-time session
// token and pins the canonical login name the org reports back.
func (o *OktaClient) AuthnSession(ctx context.Context, password string) error {
	payload, err := json.Marshal(map[string]string{
		"username": o.username,
		"password": password,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.absURL("/api/v1/authn"), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	res, err := o.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to reach the Okta org")
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode >= 400 {
		return apiError(res.StatusCode, body)
	}
	var result authnResult
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.Wrap(err, "unexpected authn response")
	}
	if result.Status != "SUCCESS" {
		return errors.Errorf("login did not complete (status %s), resolve it in the Okta console and retry", result.Status)
	}
	o.sessionToken = result.SessionToken
	if login := result.Embedded.User.Profile.Login; login != "" {
		o.username = login
	}
	return nil
}

type OktaUser struct {
	ID      string `json:"id"`
	Profile struct {
		Login string `json:"login"`
	} `json:"profile"`
}

// User looks up an org user by login name.
func (o *OktaClient) User(ctx context.Context, username string) (*OktaUser, error) {
	body, _, err := o.Get(ctx, "/api/v1/users/"+url.PathEscape(username))
	if err != nil {
		var apierr *APIError
		if errors.As(err, &apierr) && apierr.ErrorCode == "E0000007" {
			return nil, errors.Errorf("%s was not found", username)
		}
		return nil, err
	}
	var user OktaUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, errors.Wrap(err, "unexpected user response")
	}
	return &user, nil
}

// SAMLResponse fetches an app link and pulls the signed assertion out
// of the auto-submitting form Okta serves there. The one-time session
// token, when present, rides along as a query parameter so the fetch
// needs no browser cookies.
func (o *OktaClient) SAMLResponse(ctx context.Context, appLink string) (string, error) {
	link := appLink
	if o.sessionToken != "" {
		sep := "?"
		if strings.Contains(link, "?") {
			sep = "&"
		}
		link += sep + "onetimetoken=" + url.QueryEscape(o.sessionToken)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	o.authorize(req)
	res, err := o.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch the app link")
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return "", errors.Errorf("app link %s returned status %d", appLink, res.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "cannot parse the app link page")
	}
	assertion, ok := doc.Find(`input[name="SAMLResponse"]`).Attr("value")
	if !ok || assertion == "" {
		return "", errors.Errorf("no SAMLResponse found at %s, the session may have expired", appLink)
	}
	return assertion, nil
}
