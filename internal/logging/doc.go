// Package logging constructs slog loggers for the Papri client.
//
// Two formats are supported: a human-oriented console handler used by the CLI
// and a JSON handler for machine consumption. Output can fan out to stdout and
// a log file under the configured log directory. Obtain loggers through
// NewFromConfig so level and format stay consistent with user configuration.
package logging
