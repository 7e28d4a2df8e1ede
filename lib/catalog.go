package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// amazonAWSConnector is the connector name Okta assigns to every AWS
// federation app instance, regardless of the label an admin gives it.
const amazonAWSConnector = "amazon_aws"

var samlProviderPattern = regexp.MustCompile(`:saml-provider.*`)

// DeriveRoleARN rewrites an identity-provider ARN into the ARN of the
// named role. Both ARNs share the partition and account prefix, so the
// rewrite replaces everything from the resource part on. An ARN
// without a ":saml-provider" resource cannot address a role this way
// and is rejected rather than passed through.
func DeriveRoleARN(identityProviderARN, roleName string) (string, error) {
	if !samlProviderPattern.MatchString(identityProviderARN) {
		return "", errors.Errorf("cannot derive a role ARN from %s: no :saml-provider resource", identityProviderARN)
	}
	return samlProviderPattern.ReplaceAllString(identityProviderARN, ":role/"+roleName), nil
}

// AppRecord is the raw app assignment document the Okta Apps API
// returns, reduced to the fields this tool reads.
type AppRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Label    string `json:"label"`
	Settings struct {
		App struct {
			IdentityProviderARN string `json:"identityProviderArn"`
		} `json:"app"`
	} `json:"settings"`
	Embedded struct {
		User struct {
			Profile struct {
				SAMLRoles []string `json:"samlRoles"`
			} `json:"profile"`
		} `json:"user"`
	} `json:"_embedded"`
	Links struct {
		AppLinks []struct {
			Href string `json:"href"`
		} `json:"appLinks"`
		Logo []struct {
			Href string `json:"href"`
		} `json:"logo"`
	} `json:"_links"`
}

// BuildAppList filters raw app records down to AWS federation apps and
// derives the role set each one grants. Blank role names are dropped,
// and an app whose role set comes up empty is dropped with them, so
// everything surfaced here is selectable.
func BuildAppList(records []AppRecord) ([]AWSApp, error) {
	var apps []AWSApp
	for _, record := range records {
		if record.Name != amazonAWSConnector {
			continue
		}
		app := AWSApp{
			ID:                  record.ID,
			Name:                record.Label,
			IdentityProviderARN: record.Settings.App.IdentityProviderARN,
			Links:               map[string]string{},
		}
		for _, roleName := range record.Embedded.User.Profile.SAMLRoles {
			if roleName == "" {
				continue
			}
			arn, err := DeriveRoleARN(app.IdentityProviderARN, roleName)
			if err != nil {
				return nil, errors.Wrapf(err, "app %s", app.Name)
			}
			app.Roles = append(app.Roles, AWSRole{Name: roleName, ARN: arn})
		}
		if len(app.Roles) == 0 {
			continue
		}
		if len(record.Links.AppLinks) > 0 {
			app.Links["appLink"] = record.Links.AppLinks[0].Href
		}
		if len(record.Links.Logo) > 0 {
			app.Links["appLogo"] = record.Links.Logo[0].Href
		}
		apps = append(apps, app)
	}
	if len(apps) == 0 {
		return nil, ErrNoAWSAccounts
	}
	return apps, nil
}

// pageCursor tracks one walk over a paged API response.
type pageCursor struct {
	next string
	page int
}

// FetchAppList pulls every page of the user's app assignments and
// concatenates them in page order. Each fetched page reports progress,
// so a slow enumeration still shows signs of life.
func FetchAppList(ctx context.Context, client *OktaClient, userID string, progress func(page int)) ([]AppRecord, error) {
	if progress == nil {
		progress = func(int) { Write(".") }
	}
	query := url.Values{}
	query.Set("limit", "50")
	query.Set("filter", fmt.Sprintf("user.id eq %q", userID))
	query.Set("expand", "user/"+userID)
	cursor := pageCursor{next: "/api/v1/apps?" + query.Encode()}

	var records []AppRecord
	for cursor.next != "" {
		body, header, err := client.Get(ctx, cursor.next)
		if err != nil {
			return nil, err
		}
		var page []AppRecord
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, errors.Wrap(err, "unexpected app list response")
		}
		records = append(records, page...)
		cursor.page++
		progress(cursor.page)
		cursor.next = nextLink(header)
	}
	return records, nil
}

// nextLink pulls the rel="next" target out of RFC 5988 Link headers.
func nextLink(header http.Header) string {
	for _, link := range header.Values("Link") {
		parts := strings.Split(link, ";")
		if len(parts) < 2 {
			continue
		}
		for _, param := range parts[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.Trim(strings.TrimSpace(parts[0]), "<>")
			}
		}
	}
	return ""
}

// FetchBrokerAppList asks a gimme-creds server for the app list it
// maintains for the caller. The server pre-filters, but the same floor
// the direct path guarantees is applied here: no app reaches the
// resolver without a usable role.
func FetchBrokerAppList(ctx context.Context, client *OktaClient, serverURL string) ([]AWSApp, error) {
	body, _, err := client.Get(ctx, serverURL)
	if err != nil {
		return nil, err
	}
	var apps []AWSApp
	if err := json.Unmarshal(body, &apps); err != nil {
		return nil, errors.Wrap(err, "unexpected response from the gimme-creds server")
	}
	out := make([]AWSApp, 0, len(apps))
	for _, app := range apps {
		var roles []AWSRole
		for _, role := range app.Roles {
			if role.Name != "" {
				roles = append(roles, role)
			}
		}
		if len(roles) == 0 {
			continue
		}
		app.Roles = roles
		out = append(out, app)
	}
	if len(out) == 0 {
		return nil, ErrNoAWSAccounts
	}
	return out, nil
}
