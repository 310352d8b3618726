package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultAuditKeepDays = 90

// TrimAuditLogs deletes audit entries older than keepDays days.
func TrimAuditLogs(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, keepDays int) error {
	if pool == nil {
		return nil
	}
	if keepDays <= 0 {
		keepDays = defaultAuditKeepDays
	}
	tag, err := pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM audit_logs WHERE at < now() - interval '%d days'`, keepDays))
	if err != nil {
		if logger != nil {
			logger.Error("trim audit logs", slog.Any("error", err))
		}
		return err
	}
	if logger != nil {
		logger.Info("trimmed audit logs",
			slog.String("job", "audit_trim"),
			slog.Int("keep_days", keepDays),
			slog.Int64("deleted", tag.RowsAffected()))
	}
	return nil
}
