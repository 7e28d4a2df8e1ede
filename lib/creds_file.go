package lib

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	ini "gopkg.in/ini.v1"
)

// Destination says where one credential set goes: credential-process
// JSON on stdout, a named profile of the shared credentials file, or
// export lines on the diagnostic stream. Exactly one ever happens.
type Destination struct {
	Profile string
	JSON    bool
}

// CredentialSink delivers credentials to their destination. Path is
// the shared credentials file, Out receives JSON (stdout in
// production), Diag receives export lines (stderr, so stdout
// redirection stays clean).
type CredentialSink struct {
	Path string
	Out  io.Writer
	Diag io.Writer
}

// CredentialsFilePath resolves the shared credentials file location
// once; everything downstream receives it explicitly.
func CredentialsFilePath() (string, error) {
	if path := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot locate home directory")
	}
	return filepath.Join(home, ".aws", "credentials"), nil
}

// ProfileName applies the cred_profile policy: the literal "default",
// the resolved role's name, or the configured value verbatim.
func ProfileName(credProfile, roleName string) string {
	switch strings.ToLower(credProfile) {
	case "default":
		return "default"
	case "role":
		return roleName
	default:
		return credProfile
	}
}

func (s *CredentialSink) Deliver(cred *AWSCredentials, dest Destination) error {
	switch {
	case dest.JSON:
		js, err := cred.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.Out, js)
		return err
	case dest.Profile != "":
		return s.write(dest.Profile, cred)
	default:
		return s.emit(cred)
	}
}

// write upserts the three credential keys into the named profile and
// leaves every other section and key exactly as it found them.
func (s *CredentialSink) write(profile string, cred *AWSCredentials) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "cannot create %s", dir)
	}
	cfg, err := ini.Load(s.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(err, "cannot read %s", s.Path)
		}
		cfg = ini.Empty()
	}
	section := cfg.Section(profile)
	section.Key("aws_access_key_id").SetValue(cred.AWSAccessKey)
	section.Key("aws_secret_access_key").SetValue(cred.AWSSecretKey)
	section.Key("aws_session_token").SetValue(cred.AWSSessionToken)
	if err := cfg.SaveTo(s.Path); err != nil {
		return errors.Wrapf(err, "cannot write %s", s.Path)
	}
	return os.Chmod(s.Path, 0600)
}

// emit prints the export lines so a calling shell can eval them.
func (s *CredentialSink) emit(cred *AWSCredentials) error {
	exp, err := cred.Export()
	if err != nil {
		return err
	}
	_, err = io.WriteString(s.Diag, exp)
	return err
}
