// Package config loads typed configuration from environment variables.
//
// Structs declare their variables with caarlos0/env tags. Each package keeps
// its own Config struct and the binary composes them:
//
//	type Config struct {
//		Log         logger.Config
//		Postgres    pg.Config
//		Entitlement entitlement.Config
//	}
//
//	cfg := config.MustLoad[Config](config.WithOptionalEnvFiles(".env"))
//
// Dotenv files are read with godotenv and never override variables already
// set in the process environment. WithEnvironment swaps the source for a map,
// which keeps tests independent of the process environment.
package config
