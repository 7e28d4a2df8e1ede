package lib

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

type authServerMetadata struct {
	Issuer                        string   `json:"issuer"`
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	JwksURI                       string   `json:"jwks_uri"`
	ResponseTypesSupported        []string `json:"response_types_supported"`
	GrantTypesSupported           []string `json:"grant_types_supported"`
	ScopesSupported               []string `json:"scopes_supported"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
}

// discoverOAuthConfig reads the authorization server's published
// metadata and turns it into an oauth2 client config.
func discoverOAuthConfig(ctx context.Context, okta *OktaClient, cfg *Config) (*oauth2.Config, error) {
	metaURL := "/oauth2/" + cfg.OktaAuthServer + "/.well-known/openid-configuration"
	body, _, err := okta.Get(ctx, metaURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the authorization server metadata")
	}
	var meta authServerMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, errors.Wrap(err, "unexpected authorization server metadata")
	}
	return &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  meta.AuthorizationEndpoint,
			TokenURL: meta.TokenEndpoint,
		},
		Scopes: []string{"openid"},
	}, nil
}

// oauthCodeFlow runs the browser-based authorization code flow with
// PKCE and returns the access token the gimme-creds server expects as
// its bearer credential.
func oauthCodeFlow(ctx context.Context, okta *OktaClient, cfg *Config) (string, error) {
	oconf, err := discoverOAuthConfig(ctx, okta, cfg)
	if err != nil {
		return "", err
	}
	listener, err := net.Listen("tcp", "127.0.0.1:")
	if err != nil {
		return "", errors.Wrap(err, "cannot start local http server to handle login redirect")
	}
	port := listener.Addr().(*net.TCPAddr).Port
	redir := fmt.Sprintf("http://127.0.0.1:%d", port)
	state := md5sum(time.Now().String() + redir)
	cv := newCodeVerifier(state[4:8])
	oconf.RedirectURL = redir
	url := oconf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", cv.challenge()),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"))
	code := launch(listener, url)
	if code == "" {
		return "", errors.New("login failed, can't retrieve authorization code")
	}
	// The exchange goes through the same http client so --insecure
	// applies to the token endpoint too.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, okta.HTTPClient())
	token, err := oconf.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", cv.verifier))
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// launch opens the browser at url and waits on the loopback listener
// for the redirect carrying the authorization code.
func launch(listener net.Listener, url string) string {
	c := make(chan string)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(res http.ResponseWriter, req *http.Request) {
		code := req.URL.Query().Get("code")
		res.Header().Set("Content-Type", "text/html")
		message := "Login "
		close := " onload=\"window.close();\""
		if code != "" {
			message += "successful"
		} else {
			message += "failed"
			close = ""
		}
		res.Header().Set("Cache-Control", "no-store")
		res.Header().Set("Pragma", "no-cache")
		res.WriteHeader(200)
		res.Write([]byte(fmt.Sprintf(`<!DOCTYPE html>
<body%s>
%s
</body>
</html>
`, close, message)))
		if f, ok := res.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(100 * time.Millisecond)
		c <- code
	})
	srv := &http.Server{Handler: mux}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	defer srv.Shutdown(ctx)
	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			Writeln("error serving the login callback: %s", err)
		}
	}()
	var code string
	if err := browser.OpenURL(url); err == nil {
		code = <-c
	}
	return code
}

type codeVerifier struct {
	verifier string
}

func newCodeVerifier(s string) codeVerifier {
	set := append([]byte(s), 0x2d, 0x2e, 0x5f, 0x7e) // -._~
	length := len(set)
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteByte(set[r.Intn(length)])
	}
	return codeVerifier{sb.String()}
}

func (cv codeVerifier) challenge() string {
	s := sha256.Sum256([]byte(cv.verifier))
	return base64.RawURLEncoding.EncodeToString(s[:])
}

func md5sum(s string) string {
	bs := md5.Sum([]byte(s))
	return hex.EncodeToString(bs[:])
}
