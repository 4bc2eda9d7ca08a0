package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                     string
	Port                    string
	SubscriptionDatabaseURL string
	RedisURL                string
	S3Bucket                string
	S3Region                string
	S3Endpoint              string // optional, for local MinIO/LocalStack
	BrevoAPIKey             string
	MailFrom                string
	PartnerAPIBaseURL       string
	PartnerAPIKey           string
	FrontendURLEndsWith     string
	DevPassword             string
	AllowCrossSiteDev       bool
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	region := viper.GetString("S3_REGION")
	if region == "" {
		region = "us-east-1"
	}

	return &Config{
		Env:                     env,
		Port:                    port,
		SubscriptionDatabaseURL: viper.GetString("SUBSCRIPTION_DATABASE_URL"),
		RedisURL:                viper.GetString("REDIS_URL"),
		S3Bucket:                viper.GetString("S3_BUCKET"),
		S3Region:                region,
		S3Endpoint:              viper.GetString("S3_ENDPOINT"),
		BrevoAPIKey:             viper.GetString("BREVO_API_KEY"),
		MailFrom:                viper.GetString("MAIL_FROM"),
		PartnerAPIBaseURL:       viper.GetString("PARTNER_API_BASE_URL"),
		PartnerAPIKey:           viper.GetString("PARTNER_API_KEY"),
		FrontendURLEndsWith:     viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:             viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:       strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
	}, nil
}
