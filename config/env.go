package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Environment variables that override the file.
const (
	EnvUplinkPassword = "UQSERV_UPLINK_PASSWORD"
	EnvStoreFile      = "UQSERV_STOREFILE"
)

// LoadEnv loads .env files into the environment, then applies any overrides
// found there. With no files a .env in the working directory is used if it
// exists. Variables already set are not replaced by the files.
func (c *Config) LoadEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return errors.Wrap(err, "config: failed to load env")
		}
	}

	if pw := os.Getenv(EnvUplinkPassword); len(pw) > 0 {
		c.Uplink.Password = pw
	}
	if store := os.Getenv(EnvStoreFile); len(store) > 0 {
		c.StoreFile = store
	}
	return nil
}
