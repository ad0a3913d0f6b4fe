package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "SPACES"

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	for _, spec := range keySpecs {
		_ = v.BindEnv(spec.name, envPrefix+"_"+spec.env)
	}
	_ = v.BindEnv("plain", envPrefix+"_PLAIN")
	_ = v.BindEnv("debug", envPrefix+"_DEBUG")
	return v
}

// IsTruthy reports whether an environment value enables a flag.
func IsTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// EnvPlain reports whether SPACES_PLAIN requests plain output.
func EnvPlain() bool {
	return IsTruthy(newEnvViper().GetString("plain"))
}

// EnvDebug reports whether SPACES_DEBUG requests debug logging.
func EnvDebug() bool {
	return IsTruthy(newEnvViper().GetString("debug"))
}

// LoadFromEnv builds the environment layer. Lists are split on the platform
// path list separator.
func LoadFromEnv() (Layer, error) {
	v := newEnvViper()

	var layer Layer
	for _, spec := range keySpecs {
		raw := v.GetString(spec.name)
		if raw == "" {
			continue
		}

		values := []string{raw}
		if spec.kind == kindList {
			values = strings.Split(raw, string(os.PathListSeparator))
		}
		if err := layer.set(spec.name, values, "env"); err != nil {
			return Layer{}, err
		}
	}
	return layer, nil
}
