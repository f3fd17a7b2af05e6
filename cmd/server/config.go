package main

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	WorkerPoolSize   int
	SessionRetention int
	AllowedOrigins   []string
	DatabaseURL      string
}

func readIntEnv(name string, def int) int {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("%s=%q is not an integer, defaulting to %d", name, raw, def)
		return def
	}
	return v
}

func ReadConfig() Config {
	port, ok := os.LookupEnv("PORT")
	if !ok {
		port = "8080"
	}

	var origins []string
	if raw, ok := os.LookupEnv("ALLOWED_ORIGINS"); ok && raw != "" {
		for _, o := range strings.Split(raw, ",") {
			origins = append(origins, strings.TrimSpace(o))
		}
	}

	return Config{
		Port:             port,
		WorkerPoolSize:   readIntEnv("WORKER_POOL_SIZE", 1),
		SessionRetention: readIntEnv("SESSION_RETENTION", 64),
		AllowedOrigins:   origins,
		DatabaseURL:      os.Getenv("DATABASE_URL"),
	}
}
