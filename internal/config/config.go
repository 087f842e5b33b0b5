package config

import (
	"flag"
	"os"
)

type ServerConfig struct {
	Address     string
	DatabaseDSN string
}

func NewServerConfig() (*ServerConfig, error) {
	config := &ServerConfig{
		Address:     "localhost:8080",
		DatabaseDSN: "",
	}

	address := flag.String("a", config.Address, "address")
	databaseDSN := flag.String("d", config.DatabaseDSN, "database dsn")
	flag.Parse()

	envVars := map[string]*string{
		"ADDRESS":      address,
		"DATABASE_DSN": databaseDSN,
	}

	for envVar, flag := range envVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}

	config.Address = *address
	config.DatabaseDSN = *databaseDSN

	return config, nil
}
