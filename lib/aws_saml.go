package lib

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/pkg/errors"
)

// DefaultSessionDuration is the credential lifetime requested when the
// configuration does not say otherwise.
const DefaultSessionDuration int32 = 3600

type STSAssumeRoleWithSAMLAPI interface {
	AssumeRoleWithSAML(ctx context.Context,
		params *sts.AssumeRoleWithSAMLInput,
		optFns ...func(*sts.Options)) (*sts.AssumeRoleWithSAMLOutput, error)
}

// NewSTSClient builds the production STS client. AssumeRoleWithSAML is
// an unsigned call, the assertion itself is the credential.
func NewSTSClient(ctx context.Context) (STSAssumeRoleWithSAMLAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "cannot load AWS configuration")
	}
	return sts.NewFromConfig(cfg), nil
}

// AssumeRoleWithSAML exchanges the assertion for one set of temporary
// keys. There is no retry here: the assertion is single-use, so a
// rejected exchange means the whole login starts over.
func AssumeRoleWithSAML(ctx context.Context, api STSAssumeRoleWithSAMLAPI, assertion, principalARN, roleARN string, durationSeconds int32) (*AWSCredentials, error) {
	if durationSeconds == 0 {
		durationSeconds = DefaultSessionDuration
	}
	input := &sts.AssumeRoleWithSAMLInput{
		RoleArn:         aws.String(roleARN),
		PrincipalArn:    aws.String(principalARN),
		SAMLAssertion:   aws.String(assertion),
		DurationSeconds: aws.Int32(durationSeconds),
	}
	assumed, err := api.AssumeRoleWithSAML(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get AWS credentials with SAML")
	}
	result := &AWSCredentials{
		AWSAccessKey:    aws.ToString(assumed.Credentials.AccessKeyId),
		AWSSecretKey:    aws.ToString(assumed.Credentials.SecretAccessKey),
		AWSSessionToken: aws.ToString(assumed.Credentials.SessionToken),
		PrincipalARN:    principalARN,
		Expires:         aws.ToTime(assumed.Credentials.Expiration).Local(),
	}
	return result, nil
}
