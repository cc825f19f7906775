// Package sqlitepath resolves which trace database a history command uses.
package sqlitepath

import (
	"github.com/ncminhbka/Agentic-Design-Patterns/pkg/config"
)

// ResolveSQLitePath returns override when set, then the configured record
// database, then the default under the user's home directory.
func ResolveSQLitePath(override string, cfg *config.Config) (string, error) {
	if override != "" {
		return override, nil
	}
	if cfg != nil && cfg.Record.DB != "" {
		return cfg.Record.DB, nil
	}
	return config.DefaultRecordPath()
}
