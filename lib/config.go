package lib

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Configuration keys, as they appear under a profile section of
// config.yaml.
const (
	OKTA_ORG_URL         = "okta_org_url"
	GIMME_CREDS_SERVER   = "gimme_creds_server"
	CLIENT_ID            = "client_id"
	OKTA_AUTH_SERVER     = "okta_auth_server"
	WRITE_AWS_CREDS      = "write_aws_creds"
	CRED_PROFILE         = "cred_profile"
	AWS_APPNAME          = "aws_appname"
	AWS_ROLENAME         = "aws_rolename"
	SESSION_DURATION     = "session_duration"
	INSECURE_SKIP_VERIFY = "insecure"
	REMEMBER_PASSWORD    = "remember_password"
)

// DefaultProfile is the profile section used when --profile is not
// given.
const DefaultProfile = "DEFAULT"

// Config is one fully resolved profile: the config.yaml section with
// command-line overrides already applied.
type Config struct {
	Profile          string
	OktaOrgURL       string
	GimmeCredsServer string
	ClientID         string
	OktaAuthServer   string
	WriteAWSCreds    bool
	CredProfile      string
	AWSAppName       string
	AWSRoleName      string
	SessionDuration  int32
	Insecure         bool
	RememberPassword string
}

type CmdArgs struct {
	Profile  string
	Duration int32
	Insecure bool
}

var configpath string

// ConfigPath resolves the configuration directory once per process:
// $GIMME_AWS_CREDS_CONFIG when set, ~/.gimme-aws-creds otherwise.
func ConfigPath() (string, error) {
	if configpath != "" {
		return configpath, nil
	}
	path := os.Getenv("GIMME_AWS_CREDS_CONFIG")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "cannot locate home directory")
		}
		path = filepath.Join(home, ".gimme-aws-creds")
	}
	configpath = path
	return configpath, nil
}

// RuntimeConfig loads the requested profile from config.yaml and layers
// the command-line overrides on top. The org URL and server value are
// required for every run; mode-specific keys are checked where the mode
// branches.
func RuntimeConfig(args CmdArgs) (*Config, error) {
	dir, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "config.yaml"))
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("no configuration found in %s, run --configure first", dir)
		}
		return nil, err
	}

	profile := args.Profile
	if profile == "" {
		profile = DefaultProfile
	}
	sub := v.Sub(profile)
	if sub == nil {
		return nil, errors.Errorf("configuration profile not found: %s", profile)
	}

	cfg := &Config{
		Profile:          profile,
		OktaOrgURL:       sub.GetString(OKTA_ORG_URL),
		GimmeCredsServer: sub.GetString(GIMME_CREDS_SERVER),
		ClientID:         sub.GetString(CLIENT_ID),
		OktaAuthServer:   sub.GetString(OKTA_AUTH_SERVER),
		WriteAWSCreds:    sub.GetBool(WRITE_AWS_CREDS),
		CredProfile:      sub.GetString(CRED_PROFILE),
		AWSAppName:       sub.GetString(AWS_APPNAME),
		AWSRoleName:      sub.GetString(AWS_ROLENAME),
		SessionDuration:  sub.GetInt32(SESSION_DURATION),
		Insecure:         sub.GetBool(INSECURE_SKIP_VERIFY),
		RememberPassword: sub.GetString(REMEMBER_PASSWORD),
	}
	if args.Duration != 0 {
		cfg.SessionDuration = args.Duration
	}
	if args.Insecure {
		cfg.Insecure = true
	}
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultSessionDuration
	}
	if cfg.CredProfile == "" {
		cfg.CredProfile = "role"
	}

	if cfg.OktaOrgURL == "" {
		return nil, &MissingConfigError{Key: OKTA_ORG_URL}
	}
	if cfg.GimmeCredsServer == "" {
		return nil, &MissingConfigError{Key: GIMME_CREDS_SERVER}
	}
	return cfg, nil
}
