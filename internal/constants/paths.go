// Package constants contains file names and identifiers shared across rdaconv.
package constants

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "rdaconv"

	// ConfigFilename is the default configuration file name.
	ConfigFilename = "rdaconv.yml"

	// LogFilename is the default error log file name.
	LogFilename = "error.log"

	// JournalFilename is the default run journal database file name.
	JournalFilename = "journal.db"
)
