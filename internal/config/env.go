package config

import (
	"errors"
	"os"

	"github.com/BartekS5/contentmigrate/pkg/logger"
)

const DefaultJournalDatabase = "contentmigrate"

var ErrNoSQLConnection = errors.New("SQL_CONNECTION_STRING environment variable not set")

type Config struct {
	SQLConnString   string
	MongoConnString string
	JournalDatabase string
	LogFile         string
	LogLevel        int
}

// LoadConfig reads the environment. Only running migrations needs the SQL
// connection; the journal is enabled by MONGO_CONNECTION_STRING.
func LoadConfig() *Config {
	cfg := &Config{
		SQLConnString:   os.Getenv("SQL_CONNECTION_STRING"),
		MongoConnString: os.Getenv("MONGO_CONNECTION_STRING"),
		JournalDatabase: os.Getenv("JOURNAL_DATABASE"),
		LogFile:         os.Getenv("LOG_FILE"),
		LogLevel:        logger.ParseLevel(os.Getenv("LOG_LEVEL")),
	}
	if cfg.JournalDatabase == "" {
		cfg.JournalDatabase = DefaultJournalDatabase
	}
	return cfg
}

// RequireSQL fails when no CMS database is configured.
func (c *Config) RequireSQL() error {
	if c.SQLConnString == "" {
		return ErrNoSQLConnection
	}
	return nil
}

func (c *Config) JournalEnabled() bool {
	return c.MongoConnString != ""
}
