package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func ReadTOMLConfig(fname string, conf interface{}) error {
	data, err := os.ReadFile(fname)
	if err != nil {
		return err
	}

	_, err = toml.Decode(string(data), conf)
	if err != nil {
		return err
	}
	return nil
}

/*
ApplyEnvOverrides loads envFile into the environment when it exists and then
replaces each *string in overrides with its variable's value when that
variable is set and non empty
*/
func ApplyEnvOverrides(envFile string, overrides map[string]*string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	for name, target := range overrides {
		if value := os.Getenv(name); value != "" {
			*target = value
		}
	}
	return nil
}

// NewLogger builds the production logger, or the development one when debug is set
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
