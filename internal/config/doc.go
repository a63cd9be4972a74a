// Package config loads mailcampaign settings.
//
// Values are layered: built-in defaults, then the TOML file
// ($XDG_CONFIG_HOME/mailcampaign/config.toml unless a path is given), then
// environment variables. A .env file can seed the environment beforehand
// through LoadDotenv. Command-line flags are applied last by the cmd
// package.
package config
