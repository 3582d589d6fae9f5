package log

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// MigrationLogger satisfies goose.Logger. goose terminates its lines with a
// newline, which the console writer would print as an empty line.
type MigrationLogger struct {
	logger zerolog.Logger
}

func NewMigrationLogger(ctx context.Context, schema string) *MigrationLogger {
	return &MigrationLogger{
		logger: FromCtx(ctx).With().Str("component", "migrations").Str("schema", schema).Logger(),
	}
}

func (m *MigrationLogger) Printf(format string, v ...any) {
	m.logger.Debug().Msgf(strings.TrimSuffix(format, "\n"), v...)
}

func (m *MigrationLogger) Fatalf(format string, v ...any) {
	m.logger.Fatal().Msgf(strings.TrimSuffix(format, "\n"), v...)
}
