package lib

import (
	"context"
	"os"

	"github.com/pkg/errors"
	input "github.com/tcnksm/go-input"
)

// internalServer is the gimme_creds_server value that switches the
// catalog source from a broker to the Okta API itself.
const internalServer = "internal"

// RunOptions carries what Run needs beyond the profile configuration:
// the login name and injectable collaborators. Nil collaborators mean
// the production ones.
type RunOptions struct {
	Config   *Config
	Username string
	AsJSON   bool
	UI       *input.UI
	STS      STSAssumeRoleWithSAMLAPI
	Sink     *CredentialSink
}

// Run drives one credential acquisition end to end: enumerate the AWS
// apps, settle on one app and role, trade the SAML assertion for keys,
// and hand them to the sink. Every failure comes back as an error;
// nothing below this function terminates the process.
func Run(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	ui := opts.UI
	if ui == nil {
		// Prompts and menus go to stderr so stdout stays clean for
		// the JSON destination.
		ui = &input.UI{Writer: os.Stderr, Reader: os.Stdin}
	}

	okta, err := NewOktaClient(cfg.OktaOrgURL, cfg.Insecure)
	if err != nil {
		return err
	}
	okta.SetUsername(opts.Username)

	var apps []AWSApp
	if cfg.GimmeCredsServer == internalServer {
		apps, err = internalAppList(ctx, okta, ui, cfg)
	} else {
		apps, err = brokerAppList(ctx, okta, cfg)
	}
	if err != nil {
		return err
	}

	sel, err := Resolve(ui, apps, cfg.AWSAppName, cfg.AWSRoleName)
	if err != nil {
		return err
	}
	Traceln("Selected app %s role %s (%s)", sel.App.Name, sel.Role.Name, sel.Role.ARN)

	appLink := sel.App.Links["appLink"]
	if appLink == "" {
		return errors.Errorf("app %s has no app link", sel.App.Name)
	}
	assertion, err := okta.SAMLResponse(ctx, appLink)
	if err != nil {
		return err
	}

	api := opts.STS
	if api == nil {
		api, err = NewSTSClient(ctx)
		if err != nil {
			return err
		}
	}
	cred, err := AssumeRoleWithSAML(ctx, api, assertion, sel.App.IdentityProviderARN, sel.Role.ARN, cfg.SessionDuration)
	if err != nil {
		return err
	}

	sink := opts.Sink
	if sink == nil {
		path, err := CredentialsFilePath()
		if err != nil {
			return err
		}
		sink = &CredentialSink{Path: path, Out: os.Stdout, Diag: os.Stderr}
	}
	dest := Destination{}
	switch {
	case opts.AsJSON:
		dest.JSON = true
	case cfg.WriteAWSCreds:
		dest.Profile = ProfileName(cfg.CredProfile, sel.Role.Name)
		Writeln("Writing %s to the %s profile of %s", sel.Role.Name, dest.Profile, sink.Path)
	}
	return sink.Deliver(cred, dest)
}

// internalAppList authenticates a primary session and walks the Okta
// Apps API directly. Requires an administrative API token in the
// environment, which is why most deployments front this with a
// gimme-creds server instead.
func internalAppList(ctx context.Context, okta *OktaClient, ui *input.UI, cfg *Config) ([]AWSApp, error) {
	apiKey := os.Getenv("OKTA_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OKTA_API_KEY environment variable not found")
	}
	if err := authenticateSession(ctx, okta, ui, cfg); err != nil {
		return nil, err
	}
	Write("Authentication Success! Getting AWS accounts")
	okta.UseAPIKey(apiKey)
	user, err := okta.User(ctx, okta.Username())
	if err != nil {
		return nil, err
	}
	records, err := FetchAppList(ctx, okta, user.ID, nil)
	if err != nil {
		return nil, err
	}
	Writeln("done")
	return BuildAppList(records)
}

// brokerAppList logs in through OAuth and asks the gimme-creds server
// for the prepared app list.
func brokerAppList(ctx context.Context, okta *OktaClient, cfg *Config) ([]AWSApp, error) {
	if cfg.ClientID == "" {
		return nil, &MissingConfigError{Key: CLIENT_ID}
	}
	if cfg.OktaAuthServer == "" {
		return nil, &MissingConfigError{Key: OKTA_AUTH_SERVER}
	}
	token, err := oauthCodeFlow(ctx, okta, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to login the OIDC provider")
	}
	okta.UseAccessToken(token)
	Writeln("Authentication Success! Calling gimme-creds server...")
	return FetchBrokerAppList(ctx, okta, cfg.GimmeCredsServer)
}

// authenticateSession collects the primary credentials and trades them
// for a one-time session token. The password comes from the secret
// store when one is configured, from a masked prompt otherwise.
func authenticateSession(ctx context.Context, okta *OktaClient, ui *input.UI, cfg *Config) error {
	if okta.Username() == "" {
		username, err := ui.Ask("Okta username:", &input.Options{
			Required: true,
			Loop:     true,
		})
		if err != nil {
			return err
		}
		okta.SetUsername(username)
	}

	remember := cfg.RememberPassword != "" && cfg.RememberPassword != "none"
	password, stored := "", false
	if remember {
		if err := InitializeSecret(cfg.RememberPassword); err != nil {
			return err
		}
		if pw, err := StoredPassword(okta.Username()); err == nil {
			password, stored = pw, true
		}
	}
	if password == "" {
		pw, err := ui.Ask("Okta password:", &input.Options{
			Required: true,
			Mask:     true,
		})
		if err != nil {
			return err
		}
		password = pw
	}

	if err := okta.AuthnSession(ctx, password); err != nil {
		return err
	}
	if remember && !stored {
		if err := StorePassword(okta.Username(), password); err != nil {
			Writeln("Could not save the password: %s", err)
		} else {
			Writeln("The Okta password has been saved in the %s store", cfg.RememberPassword)
		}
	}
	return nil
}
