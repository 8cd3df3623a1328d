package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"robocmd/pkg/logx"
)

// Store is the journal API used by the app and the CLI.
type Store interface {
	AppendLifecycle(ctx context.Context, e LifecycleEntry) error
	// Recent returns up to limit entries, oldest first. limit <= 0 returns all.
	Recent(ctx context.Context, limit int) ([]LifecycleEntry, error)
	Close() error
}

type opener func(Config, logx.Logger) (Store, error)

var drivers = map[string]opener{
	"file":   openFile,
	"sqlite": openSQLite,
}

var driverAliases = map[string]string{"sqlite3": "sqlite", "jsonl": "file"}

// ParseDriver canonicalizes a configured driver name. It returns "" for a
// disabled journal and an error for an unknown driver.
func ParseDriver(name string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(name))
	if d == "" || d == "none" {
		return "", nil
	}
	if alias, ok := driverAliases[d]; ok {
		d = alias
	}
	if _, ok := drivers[d]; !ok {
		return "", fmt.Errorf("unknown storage driver %q (want one of %s)", name, strings.Join(Drivers(), ", "))
	}
	return d, nil
}

// Drivers lists the canonical driver names.
func Drivers() []string {
	return slices.Sorted(maps.Keys(drivers))
}

// Open initializes the configured store. It returns (nil, nil) when the
// journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver, err := ParseDriver(cfg.Driver)
	if err != nil || driver == "" {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg.Driver = driver
	return drivers[driver](cfg, log.With(logx.String("comp", "storage"), logx.String("driver", driver)))
}
