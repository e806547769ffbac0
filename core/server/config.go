package server

import (
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/richd0tcom/sensoria/internal/db"
	"github.com/richd0tcom/sensoria/internal/domain"
)

type ServerConfig struct {
	Store       domain.SensorStore
	Port        string
	Env         string
	CORSOrigins []string
}

type ConfigOption func(*ServerConfig) error

func WithMongo(client *mongo.Client, database string) ConfigOption {
	return func(config *ServerConfig) error {
		store, err := db.NewMongoSensorStore(client, database)
		if err != nil {
			return err
		}
		config.Store = store
		return nil
	}
}

// WithStore injects a prebuilt store. Used by tests to run the server
// against a double.
func WithStore(store domain.SensorStore) ConfigOption {
	return func(config *ServerConfig) error {
		config.Store = store
		return nil
	}
}

func WithPort(port string) ConfigOption {
	return func(config *ServerConfig) error {
		config.Port = port
		return nil
	}
}

func WithEnv(env string) ConfigOption {
	return func(config *ServerConfig) error {
		config.Env = env
		return nil
	}
}

func WithCORSOrigins(origins []string) ConfigOption {
	return func(config *ServerConfig) error {
		config.CORSOrigins = origins
		return nil
	}
}
