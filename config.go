package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const defaultPort = 7000

// portFromEnv reads the "PORT" environment variable, which can also be set in a ".env" file in the working directory.
func portFromEnv() (int, error) {
	// A missing .env file is fine, the environment is enough
	_ = godotenv.Load()

	portString := os.Getenv("PORT")
	if portString == "" {
		return defaultPort, nil
	}
	return strconv.Atoi(portString)
}
