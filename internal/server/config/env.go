package config

import (
	"errors"
	"io/fs"

	"github.com/akihokurino/works-server/internal/flagx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const defaultEnvFile = ".env"

// parseEnv loads the dotenv file named by -env (or ./.env when present) into
// the process environment, then overlays WORKS_* variables onto config.
// Variables already set in the environment win over the file. Unset
// variables leave fields untouched. Malformed values panic.
func parseEnv(config *Config) {
	path := flagx.EnvFileFlag()
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
