// Package config loads lowerc settings.
//
// A configuration file may be YAML (.yaml, .yml), TOML (.toml) or CUE
// (.cue). CUE files are unified with the embedded schema before decoding,
// so constraint violations carry source positions. After decoding, the
// LOWERC_* environment variables override file values and the result is
// validated.
//
// Supported overrides:
//
//	LOWERC_LOG_LEVEL     debug | info | warn | error
//	LOWERC_LOG_FORMAT    text | json
//	LOWERC_STORE         path of the SQLite alias store
//	LOWERC_POINTER_SIZE  4 | 8
package config
