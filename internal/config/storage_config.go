package config

import "os"

// Storage configures the bucket holding purchase-order images.
type Storage struct {
	Endpoint       string `mapstructure:"endpoint"`
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	PresignMinutes int    `mapstructure:"presign_minutes"`
}

// Enabled reports whether a bucket is configured. Uploads are refused otherwise.
func (s Storage) Enabled() bool {
	return s.Bucket != ""
}

// HasStaticCredentials is false when the SDK default chain (env, IAM role) should be used.
func (s Storage) HasStaticCredentials() bool {
	return s.AccessKey != "" && s.SecretKey != ""
}

func (s *Storage) applyEnv() {
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		s.Endpoint = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		s.Bucket = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		s.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		s.SecretKey = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		s.Region = v
	}
}
