package bootstrap

import (
	"os"

	"github.com/happyflights/flightbooking/config"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// LoadConfig reads .env when present, parses the command line and loads the
// config file named by --config (CONFIG_PATH, then config.yaml by default).
func LoadConfig(name string, args []string) (*config.Config, error) {
	_ = godotenv.Load(".env")

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}

	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	path := flagSet.StringP("config", "c", defaultPath, "path to the YAML config file")
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	return config.LoadConfig(*path)
}
