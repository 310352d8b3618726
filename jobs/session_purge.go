package jobs

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PurgeExpiredSessions deletes login sessions that have expired or been
// invalidated.
func PurgeExpiredSessions(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	if pool == nil {
		return nil
	}
	tag, err := pool.Exec(ctx,
		`DELETE FROM login_sessions WHERE expires_at < now() OR expired = TRUE`)
	if err != nil {
		if logger != nil {
			logger.Error("purge login sessions", slog.Any("error", err))
		}
		return err
	}
	if logger != nil {
		logger.Info("purged login sessions",
			slog.String("job", "session_purge"),
			slog.Int64("deleted", tag.RowsAffected()))
	}
	return nil
}
