package conf

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// PgEnv is the postgres connection as configured by POSTGRES_* variables.
type PgEnv struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	// PasswordSecret names an AWS Secrets Manager secret holding
	// {"password": "..."}, consulted for non-local hosts.
	PasswordSecret string
}

func PgEnvFromEnv() PgEnv {
	return PgEnv{
		Host:           envOr("POSTGRES_HOST", "localhost"),
		Port:           envOr("POSTGRES_PORT", "5432"),
		User:           os.Getenv("POSTGRES_USER"),
		Password:       os.Getenv("POSTGRES_PW"),
		DB:             os.Getenv("POSTGRES_DB"),
		SSLMode:        envOr("POSTGRES_SSLMODE", "disable"),
		PasswordSecret: os.Getenv("POSTGRES_PASSWORD_SECRET_NAME"),
	}
}

func (e PgEnv) needsSecret() bool {
	return e.Host != "localhost" && e.PasswordSecret != ""
}

func (e PgEnv) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		e.Host, e.Port, e.User, e.Password, e.DB, e.SSLMode)
}

// URL is the postgres:// form expected by the migration driver.
func (e PgEnv) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		e.User, e.Password, e.Host, e.Port, e.DB, e.SSLMode)
}

// ResolvePgEnv reads POSTGRES_* variables and, for remote hosts, fetches the
// password from AWS Secrets Manager.
func ResolvePgEnv(ctx context.Context) (PgEnv, error) {
	e := PgEnvFromEnv()
	if !e.needsSecret() {
		return e, nil
	}
	secretValue, err := getSecretFromAWS(ctx, e.PasswordSecret)
	if err != nil {
		return PgEnv{}, fmt.Errorf("failed to get postgres password from AWS: %w", err)
	}
	pw, err := parsePasswordSecret(secretValue)
	if err != nil {
		return PgEnv{}, err
	}
	e.Password = pw
	return e, nil
}

func GetPgConnStrFromEnv(ctx context.Context) (string, error) {
	e, err := ResolvePgEnv(ctx)
	if err != nil {
		return "", err
	}
	return e.ConnString(), nil
}

func parsePasswordSecret(value string) (string, error) {
	var secret struct {
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(value), &secret); err != nil {
		return "", fmt.Errorf("failed to parse postgres password secret: %w", err)
	}
	return secret.Password, nil
}

func getSecretFromAWS(ctx context.Context, secretName string) (string, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", err
	}
	svc := secretsmanager.NewFromConfig(cfg)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	result, err := svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(result.SecretString), nil
}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		return v
	}
	return fallback
}
