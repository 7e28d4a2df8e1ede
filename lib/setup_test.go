package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSetupInternalMode(t *testing.T) {
	setConfigDir(t)
	ui, _ := scriptedUI(
		"https://example.okta.com", // okta_org_url
		"internal",                 // gimme_creds_server
		"",                         // write_aws_creds, default false
		"",                         // aws_appname
		"",                         // aws_rolename
		"",                         // session_duration, default 3600
		"",                         // insecure, default false
		"",                         // remember_password, default none
	)

	require.NoError(t, RunSetup(ui, DefaultProfile))

	cfg, err := RuntimeConfig(CmdArgs{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.okta.com", cfg.OktaOrgURL)
	assert.Equal(t, "internal", cfg.GimmeCredsServer)
	assert.False(t, cfg.WriteAWSCreds)
	assert.Equal(t, "", cfg.AWSAppName)
	assert.Equal(t, int32(3600), cfg.SessionDuration)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, "none", cfg.RememberPassword)
	// Internal mode never asks for OAuth settings.
	assert.Equal(t, "", cfg.ClientID)
}

func TestRunSetupBrokerModeWithWrite(t *testing.T) {
	setConfigDir(t)
	ui, _ := scriptedUI(
		"https://example.okta.com",
		"https://broker.example.com/api/creds",
		"true",
		"AWS Prod",
		"Admin",
		"43200",
		"true",
		"file",
		"abc123", // client_id, broker branch
		"",       // okta_auth_server, default "default"
		"",       // cred_profile, default "role"
	)

	require.NoError(t, RunSetup(ui, "work"))

	cfg, err := RuntimeConfig(CmdArgs{Profile: "work"})
	require.NoError(t, err)
	assert.Equal(t, "https://broker.example.com/api/creds", cfg.GimmeCredsServer)
	assert.True(t, cfg.WriteAWSCreds)
	assert.Equal(t, "AWS Prod", cfg.AWSAppName)
	assert.Equal(t, "Admin", cfg.AWSRoleName)
	assert.Equal(t, int32(43200), cfg.SessionDuration)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, "file", cfg.RememberPassword)
	assert.Equal(t, "abc123", cfg.ClientID)
	assert.Equal(t, "default", cfg.OktaAuthServer)
	assert.Equal(t, "role", cfg.CredProfile)
}

func TestRunSetupKeepsOtherProfiles(t *testing.T) {
	dir := setConfigDir(t)
	writeConfigFile(t, dir, "work:\n  okta_org_url: https://work.okta.com\n  gimme_creds_server: internal\n")

	ui, _ := scriptedUI(
		"https://example.okta.com",
		"internal",
		"", "", "", "", "", "",
	)
	require.NoError(t, RunSetup(ui, DefaultProfile))

	cfg, err := RuntimeConfig(CmdArgs{Profile: "work"})
	require.NoError(t, err)
	assert.Equal(t, "https://work.okta.com", cfg.OktaOrgURL)

	cfg, err = RuntimeConfig(CmdArgs{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.okta.com", cfg.OktaOrgURL)
}
