package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ErrParameterNotFound is returned when the parameter does not exist.
var ErrParameterNotFound = errors.New("config: parameter not found")

// SecretsConfig points at an optional SSM Parameter Store prefix holding the
// API key and SMTP password.
type SecretsConfig struct {
	ParamPrefix string
}

// Enabled reports whether secrets should be resolved from Parameter Store.
func (c SecretsConfig) Enabled() bool {
	return c.ParamPrefix != ""
}

// ssmAPI is the subset of *ssm.Client used here.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParamStore reads decrypted SecureString parameters.
type ParamStore struct {
	api ssmAPI
}

// NewParamStore wraps an SSM client.
func NewParamStore(api ssmAPI) (*ParamStore, error) {
	if api == nil {
		return nil, errors.New("config: ssm api must not be nil")
	}
	return &ParamStore{api: api}, nil
}

// GetParameter returns the decrypted value of name.
func (p *ParamStore) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("config: parameter name is required")
	}

	withDecryption := true
	out, err := p.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrParameterNotFound, name)
		}
		return "", fmt.Errorf("config: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("config: parameter %q has no value", name)
	}
	return strings.TrimSpace(*out.Parameter.Value), nil
}

// ParamGetter is satisfied by *ParamStore and test doubles.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ResolveSecrets fills secrets left empty by the environment from
// <prefix>/ai_api_key and <prefix>/smtp_password. Values already set in the
// environment win. A secret is only looked up when the feature using it is
// configured, and a missing parameter leaves the value empty.
func (c *Config) ResolveSecrets(ctx context.Context, params ParamGetter) error {
	if !c.Secrets.Enabled() {
		return nil
	}
	if params == nil {
		return errors.New("config: param getter must not be nil")
	}

	prefix := c.Secrets.ParamPrefix

	if c.AI.needsAPIKey() {
		key, err := lookupOptional(ctx, params, prefix+"/ai_api_key")
		if err != nil {
			return fmt.Errorf("config: load ai api key: %w", err)
		}
		c.AI.APIKey = key
	}

	if c.Mail.needsPassword() {
		password, err := lookupOptional(ctx, params, prefix+"/smtp_password")
		if err != nil {
			return fmt.Errorf("config: load smtp password: %w", err)
		}
		c.Mail.Password = password
	}

	return nil
}

// needsAPIKey reports whether the provider authenticates with an API key that
// the environment did not supply. Ark with an AK/SK pair does not.
func (c AIConfig) needsAPIKey() bool {
	if c.APIKey != "" {
		return false
	}
	return c.Provider != ProviderArk || c.AccessKey == "" || c.SecretKey == ""
}

// needsPassword reports whether mail is addressed but has no password yet.
func (c MailConfig) needsPassword() bool {
	return c.Password == "" && c.Host != "" && c.AdminEmail != ""
}

func lookupOptional(ctx context.Context, params ParamGetter, name string) (string, error) {
	value, err := params.GetParameter(ctx, name)
	if errors.Is(err, ErrParameterNotFound) {
		log.Printf("[config] parameter %s not found, leaving it unset", name)
		return "", nil
	}
	return value, err
}
