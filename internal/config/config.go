package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiryDays     int

	SNSRegion string

	// Cron specs for the four scheduled tasks.
	ReminderCron     string
	VerificationCron string
	AlertSweepCron   string
	CleanupCron      string

	RetentionDays int

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Members          string
	ProgressEvents   string
	Alerts           string
	NotificationLogs string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Members:          getEnv("DYNAMO_TABLE_MEMBERS", "members"),
			ProgressEvents:   getEnv("DYNAMO_TABLE_PROGRESS_EVENTS", "progress_events"),
			Alerts:           getEnv("DYNAMO_TABLE_ALERTS", "group_alerts"),
			NotificationLogs: getEnv("DYNAMO_TABLE_NOTIFICATION_LOGS", "notification_logs"),
		},
		S3BucketName:      getEnv("S3_BUCKET_NAME", "team-progress-symbols"),
		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiryDays:     getEnvInt("JWT_EXPIRY_DAYS", 7),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		// Defaults match the production schedule: daily at 9 AM, hourly,
		// every 6 hours, Sunday midnight.
		ReminderCron:     getEnv("CRON_DAILY_REMINDERS", "0 9 * * *"),
		VerificationCron: getEnv("CRON_ACTIVITY_VERIFICATION", "0 * * * *"),
		AlertSweepCron:   getEnv("CRON_GROUP_ALERT_SWEEP", "0 */6 * * *"),
		CleanupCron:      getEnv("CRON_RETENTION_CLEANUP", "0 0 * * 0"),
		RetentionDays:    getEnvInt("RETENTION_DAYS", 7),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
