package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config carries the environment-driven settings.
type Config struct {
	Port        string
	Env         string
	MongoURI    string
	MongoDB     string
	JWTSecret   string
	CORSOrigins []string
}

// Load reads configuration from the environment, falling back to defaults
// suitable for local development.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3000")
	v.SetDefault("ENV", "development")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "iot")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ORIGINS", "*")

	return Config{
		Port:     v.GetString("PORT"),
		Env:      v.GetString("ENV"),
		MongoURI: v.GetString("MONGO_URI"),
		MongoDB:  v.GetString("MONGO_DB"),
		// Read for deployment parity; no route verifies tokens.
		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigins: splitOrigins(v.GetString("CORS_ORIGINS")),
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
