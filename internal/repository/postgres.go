package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/vales-contigo/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository хранит состояние вале в PostgreSQL. Ключом служит тот же безопасный PIN, что и у файлов.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

var retryDelays = []time.Duration{100 * time.Millisecond, 300 * time.Millisecond, 500 * time.Millisecond}

func withRetry(ctx context.Context, fn func() error) error {
	var err error

	for i := 0; i <= len(retryDelays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(retryDelays) {
			break
		}

		timer := time.NewTimer(retryDelays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// ResolvePath возвращает ключ строки состояния в виде pin_states/<безопасный PIN>.
func (r *PostgresRepository) ResolvePath(pin string) string {
	return "pin_states/" + SafePIN(pin)
}

// Load возвращает множество использованных вале PIN.
func (r *PostgresRepository) Load(ctx context.Context, pin string) (model.UsedSet, error) {
	key := SafePIN(pin)
	location := r.ResolvePath(pin)

	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pin_states WHERE pin_key = $1)`,
		key,
	).Scan(&exists)
	if err != nil {
		return nil, &LoadError{Kind: LoadErrorIO, Location: location, Err: err}
	}
	if !exists {
		return nil, ErrStateNotFound
	}

	rows, err := r.pool.Query(ctx,
		`SELECT coupon_id FROM used_coupons WHERE pin_key = $1 ORDER BY coupon_id`,
		key,
	)
	if err != nil {
		return nil, &LoadError{Kind: LoadErrorIO, Location: location, Err: err}
	}
	defer rows.Close()

	used := model.NewUsedSet()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, &LoadError{Kind: LoadErrorParse, Location: location, Err: err}
		}
		used.Add(id)
	}

	if err := rows.Err(); err != nil {
		return nil, &LoadError{Kind: LoadErrorIO, Location: location, Err: err}
	}

	return used, nil
}

// Save полностью заменяет состояние PIN в одной транзакции.
func (r *PostgresRepository) Save(ctx context.Context, pin string, used model.UsedSet) error {
	key := SafePIN(pin)

	return withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		_, err = tx.Exec(ctx,
			`INSERT INTO pin_states (pin_key, updated_at) VALUES ($1, now())
			 ON CONFLICT (pin_key) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
			key,
		)
		if err != nil {
			return fmt.Errorf("upsert pin state: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM used_coupons WHERE pin_key = $1`, key); err != nil {
			return fmt.Errorf("clear used coupons: %w", err)
		}

		ids := used.IDs()
		if len(ids) > 0 {
			rows := make([][]any, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []any{key, id})
			}

			_, err = tx.CopyFrom(ctx,
				pgx.Identifier{"used_coupons"},
				[]string{"pin_key", "coupon_id"},
				pgx.CopyFromRows(rows),
			)
			if err != nil {
				return fmt.Errorf("insert used coupons: %w", err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		return nil
	})
}
