// Package config loads runtime configuration for the efactura CLI.
//
// Sources & precedence (later wins)
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, if present (joho/godotenv). It
//     never overrides variables already set in the environment.
//  3. Optional JSON file selected with -c or --config.
//  4. Environment variables: CLIENT_ID, CLIENT_SECRET and EFACTURA_*.
//  5. Command-line flags bound with BindFlags and by the individual commands.
//
// # JSON schema
//
// Durations use timex.Duration, so "2s" and integer nanoseconds both work:
//
//	{
//	  "client_id": "...",
//	  "redirect_uri": "https://tunnel.example.com/callback",
//	  "env": "test",
//	  "rate_interval": "2s",
//	  "redirect_wait": "90s",
//	  "dest": "./efactura",
//	  "s3": {"bucket": "invoices", "endpoint": "http://127.0.0.1:9000"}
//	}
package config
