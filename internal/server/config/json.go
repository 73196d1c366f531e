package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/foundationauth/internal/flagx"
	"github.com/dmitrijs2005/foundationauth/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "168h" style
// strings or integer nanoseconds via timex.Duration.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	LogLevel         string `json:"log_level"`

	DatabaseDriver string `json:"database_driver"`
	DatabaseDSN    string `json:"database_dsn"`

	SecretKey                    string         `json:"secret_key"`
	JWTIssuer                    string         `json:"jwt_issuer"`
	JWTAudience                  string         `json:"jwt_audience"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`

	VerificationTokenValidityDuration timex.Duration `json:"verification_token_validity_duration"`
	VerificationLinkBase              string         `json:"verification_link_base"`

	PasswordHashAlgorithm string `json:"password_hash_algorithm"`
	BcryptCost            int    `json:"bcrypt_cost"`

	MailProvider      string         `json:"mail_provider"`
	MailSenderAddress string         `json:"mail_sender_address"`
	MailSenderName    string         `json:"mail_sender_name"`
	MailSendTimeout   timex.Duration `json:"mail_send_timeout"`

	SMTPHost        string `json:"smtp_host"`
	SMTPPort        int    `json:"smtp_port"`
	SMTPUsername    string `json:"smtp_username"`
	SMTPPassword    string `json:"smtp_password"`
	SMTPImplicitTLS bool   `json:"smtp_implicit_tls"`

	SendGridAPIKey string `json:"sendgrid_api_key"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config, if any, over config. Keys
// absent from the file keep their current values.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJSON(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	c.apply(config)
	return nil
}

func toJSON(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrGRPC:                  c.EndpointAddrGRPC,
		LogLevel:                          c.LogLevel,
		DatabaseDriver:                    c.DatabaseDriver,
		DatabaseDSN:                       c.DatabaseDSN,
		SecretKey:                         c.SecretKey,
		JWTIssuer:                         c.JWTIssuer,
		JWTAudience:                       c.JWTAudience,
		SessionTokenValidityDuration:      timex.Duration{Duration: c.SessionTokenValidityDuration},
		VerificationTokenValidityDuration: timex.Duration{Duration: c.VerificationTokenValidityDuration},
		VerificationLinkBase:              c.VerificationLinkBase,
		PasswordHashAlgorithm:             c.PasswordHashAlgorithm,
		BcryptCost:                        c.BcryptCost,
		MailProvider:                      c.MailProvider,
		MailSenderAddress:                 c.MailSenderAddress,
		MailSenderName:                    c.MailSenderName,
		MailSendTimeout:                   timex.Duration{Duration: c.MailSendTimeout},
		SMTPHost:                          c.SMTPHost,
		SMTPPort:                          c.SMTPPort,
		SMTPUsername:                      c.SMTPUsername,
		SMTPPassword:                      c.SMTPPassword,
		SMTPImplicitTLS:                   c.SMTPImplicitTLS,
		SendGridAPIKey:                    c.SendGridAPIKey,
		S3RootUser:                        c.S3RootUser,
		S3RootPassword:                    c.S3RootPassword,
		S3Bucket:                          c.S3Bucket,
		S3Region:                          c.S3Region,
		S3BaseEndpoint:                    c.S3BaseEndpoint,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.EndpointAddrGRPC = j.EndpointAddrGRPC
	c.LogLevel = j.LogLevel
	c.DatabaseDriver = j.DatabaseDriver
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.JWTIssuer = j.JWTIssuer
	c.JWTAudience = j.JWTAudience
	c.SessionTokenValidityDuration = j.SessionTokenValidityDuration.Duration
	c.VerificationTokenValidityDuration = j.VerificationTokenValidityDuration.Duration
	c.VerificationLinkBase = j.VerificationLinkBase
	c.PasswordHashAlgorithm = j.PasswordHashAlgorithm
	c.BcryptCost = j.BcryptCost
	c.MailProvider = j.MailProvider
	c.MailSenderAddress = j.MailSenderAddress
	c.MailSenderName = j.MailSenderName
	c.MailSendTimeout = j.MailSendTimeout.Duration
	c.SMTPHost = j.SMTPHost
	c.SMTPPort = j.SMTPPort
	c.SMTPUsername = j.SMTPUsername
	c.SMTPPassword = j.SMTPPassword
	c.SMTPImplicitTLS = j.SMTPImplicitTLS
	c.SendGridAPIKey = j.SendGridAPIKey
	c.S3RootUser = j.S3RootUser
	c.S3RootPassword = j.S3RootPassword
	c.S3Bucket = j.S3Bucket
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
}
