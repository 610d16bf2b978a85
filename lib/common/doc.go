// Package common provides the logging setup and the configuration types
// shared by the blockfile command line tools.
//
// Logging goes through dragonboat's logger facade: packages obtain a named
// logger with logger.GetLogger and InitLoggers installs the custom factory
// (one "LEVEL | name | message" line per entry) and the configured level for
// all loggers of this module.
package common
