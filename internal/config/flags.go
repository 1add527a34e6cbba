package config

import "github.com/spf13/pflag"

// BindFlags registers the flags shared by all commands on fs. Their defaults
// are the values already loaded into cfg, so a flag only wins when given.
// The config path itself is consumed earlier by LoadConfig; it is declared
// here so the command tree accepts it.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringP("config", "c", "", "path to a JSON config file")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "verbose logging, including token claims")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable colored output")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "ANAF environment: prod or test")
	fs.StringVar(&cfg.Dest, "dest", cfg.Dest, "destination root for downloaded messages")
	fs.StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "where the OAuth token is stored")
	fs.StringVar(&cfg.StateDB, "state-db", cfg.StateDB, "SQLite file for download attempts and run history")
}
