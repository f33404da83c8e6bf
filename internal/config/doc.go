// Package config holds the immutable, post-parse run configuration and
// the unit-suffixed integer parser used by its flags. internal/cmd builds
// a Config from cobra/pflag and viper; every other package only ever reads
// one.
package config
