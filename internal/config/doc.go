// SPDX-License-Identifier: MPL-2.0

// Package config loads coriander's configuration with Viper, using CUE as
// the file format.
//
// Values are layered: built-in defaults, then the first config file found
// (--config, then <config dir>/coriander/config.cue, then ./config.cue),
// then CORIANDER_* environment variables (CORIANDER_STUDY_PARALLELISM sets
// study.parallelism). Files are validated against the embedded schema in
// config_schema.cue before they are merged.
package config
