package lib

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	input "github.com/tcnksm/go-input"
)

type setup struct {
	key    string
	getter func(ui *input.UI) (string, error)
}

var steps []setup = []setup{
	{OKTA_ORG_URL, func(ui *input.UI) (string, error) {
		return ui.Ask("Okta organization URL (https://yourcompany.okta.com):", &input.Options{
			Required: true,
			Loop:     true,
			ValidateFunc: func(s string) error {
				u, err := url.Parse(s)
				if err != nil || u.Scheme != "https" || u.Host == "" {
					return errors.New("Input must be an https URL")
				}
				return nil
			},
		})
	}},
	{GIMME_CREDS_SERVER, func(ui *input.UI) (string, error) {
		return ui.Ask("Gimme-creds server URL, or 'internal' to call the Okta API directly:", &input.Options{
			Required: true,
			Loop:     true,
			ValidateFunc: func(s string) error {
				if s == "internal" {
					return nil
				}
				u, err := url.Parse(s)
				if err != nil || u.Scheme == "" || u.Host == "" {
					return errors.New("Input must be 'internal' or a URL")
				}
				return nil
			},
		})
	}},
	{WRITE_AWS_CREDS, func(ui *input.UI) (string, error) {
		return ui.Ask("Write credentials to the AWS shared credentials file instead of echoing them (Default: false):", &input.Options{
			Default:  "false",
			Required: false,
			ValidateFunc: func(s string) error {
				v := strings.ToLower(s)
				if v != "false" && v != "true" {
					return errors.New("Input must be true or false")
				}
				return nil
			},
		})
	}},
	{AWS_APPNAME, func(ui *input.UI) (string, error) {
		return ui.Ask("AWS Okta app name to use without asking (Default: none):", &input.Options{
			Default:  "",
			Required: false,
		})
	}},
	{AWS_ROLENAME, func(ui *input.UI) (string, error) {
		return ui.Ask("AWS role name to use without asking (Default: none):", &input.Options{
			Default:  "",
			Required: false,
		})
	}},
	{SESSION_DURATION, func(ui *input.UI) (string, error) {
		return ui.Ask("The session duration, in seconds, of the role session [900-43200] (Default: 3600):", &input.Options{
			Default:  "3600",
			Required: true,
			Loop:     true,
			ValidateFunc: func(s string) error {
				i, err := strconv.ParseInt(s, 10, 64)
				if err != nil || i < 900 || i > 43200 {
					return errors.New("Input must be 900-43200")
				}
				return nil
			},
		})
	}},
	{INSECURE_SKIP_VERIFY, func(ui *input.UI) (string, error) {
		return ui.Ask("Insecure mode for HTTPS access (Default: false):", &input.Options{
			Default:  "false",
			Required: false,
			ValidateFunc: func(s string) error {
				v := strings.ToLower(s)
				if v != "false" && v != "true" {
					return errors.New("Input must be true or false")
				}
				return nil
			},
		})
	}},
	{REMEMBER_PASSWORD, func(ui *input.UI) (string, error) {
		return ui.Ask("Remember the Okta password between runs [keyring/file/none] (Default: none):", &input.Options{
			Default:  "none",
			Required: false,
			ValidateFunc: func(s string) error {
				v := strings.ToLower(s)
				if v != "keyring" && v != "file" && v != "none" {
					return errors.New("Input must be keyring, file or none")
				}
				return nil
			},
		})
	}},
}

// RunSetup walks the operator through every setting and saves the
// answers as the named profile of config.yaml, leaving other profiles
// in the file untouched.
func RunSetup(ui *input.UI, profile string) error {
	if ui == nil {
		ui = input.DefaultUI()
	}
	config := make(map[string]interface{})
	for _, step := range steps {
		value, err := step.getter(ui)
		if err != nil {
			return errors.Wrap(err, "error setting up")
		}
		config[step.key] = value
	}

	if config[GIMME_CREDS_SERVER] != "internal" {
		if err := brokerSetup(ui, config); err != nil {
			return errors.Wrap(err, "error setting up")
		}
	}
	if config[WRITE_AWS_CREDS] == "true" {
		if err := profileSetup(ui, config); err != nil {
			return errors.Wrap(err, "error setting up")
		}
	}

	dir, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "cannot create %s", dir)
	}
	configFile := filepath.Join(dir, "config.yaml")
	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return err
	}
	v.Set(profile, config)
	if err := v.WriteConfig(); err != nil {
		return errors.Wrapf(err, "failed to write %s", configFile)
	}
	Writeln("Saved %s for %s", configFile, profile)
	return nil
}

// brokerSetup asks for the OAuth settings a gimme-creds server needs.
func brokerSetup(ui *input.UI, config map[string]interface{}) error {
	clientID, err := ui.Ask("OAuth client ID registered for this tool:", &input.Options{
		Required: true,
		Loop:     true,
	})
	if err != nil {
		return err
	}
	config[CLIENT_ID] = clientID

	authServer, err := ui.Ask("Okta authorization server ID (Default: default):", &input.Options{
		Default:  "default",
		Required: true,
	})
	if err != nil {
		return err
	}
	config[OKTA_AUTH_SERVER] = authServer
	return nil
}

// profileSetup asks how the written profile should be named.
func profileSetup(ui *input.UI, config map[string]interface{}) error {
	credProfile, err := ui.Ask("Profile to write: 'default', 'role' for the role name, or a literal name (Default: role):", &input.Options{
		Default:  "role",
		Required: true,
	})
	if err != nil {
		return err
	}
	config[CRED_PROFILE] = credProfile
	return nil
}
