package lib

import (
	"encoding/json"
	"fmt"
	"time"
)

type AWSCredentials struct {
	Version         int
	AWSAccessKey    string    `json:"AccessKeyId"`
	AWSSecretKey    string    `json:"SecretAccessKey"`
	AWSSessionToken string    `json:"SessionToken"`
	PrincipalARN    string    `json:"-"`
	Expires         time.Time `json:"Expiration"`
}

func (c *AWSCredentials) JSON() (string, error) {
	c.Version = 1
	bs, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("unexpected AWS credential response: %w", err)
	}
	return string(bs), nil
}

func (c *AWSCredentials) Export() (string, error) {
	return export([][2]string{
		{"AWS_ACCESS_KEY_ID", c.AWSAccessKey},
		{"AWS_SECRET_ACCESS_KEY", c.AWSSecretKey},
		{"AWS_SESSION_TOKEN", c.AWSSessionToken},
	}), nil
}

// AWSApp is one AWS federation app a user can reach, with the roles the
// app grants them. The JSON tags match the payload a gimme-creds server
// returns, which is the same shape the direct API path builds.
type AWSApp struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	IdentityProviderARN string            `json:"identityProviderArn"`
	Roles               []AWSRole         `json:"roles"`
	Links               map[string]string `json:"links"`
}

type AWSRole struct {
	Name string `json:"name"`
	ARN  string `json:"arn"`
}

// Selection is the resolver's output: one app and one of its roles,
// both pointing into the catalog that was resolved against.
type Selection struct {
	App  *AWSApp
	Role *AWSRole
}
