package repository

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/member"
	"library-backend/internal/infrastructure/database"
	"library-backend/pkg/cache"
	"library-backend/pkg/logger"
)

const (
	cacheTTL        = 5 * time.Minute
	emailConstraint = "members_email_key"

	activeStatuses = `('BORROWED', 'OVERDUE')`
)

var memberColumns = []interface{}{
	"id", "name", "email", "phone", "address", "join_date", "status",
	"active_borrowings", "total_borrowed", "version", "updated_at",
}

// postgresRepository caches single members only. Listings include borrow
// counters that change on every loan, so they always hit the database.
type postgresRepository struct {
	pool    *pgxpool.Pool
	cache   cache.Cache
	builder goqu.DialectWrapper
}

func NewPostgresRepository(pool *pgxpool.Pool, c cache.Cache) member.Repository {
	if c == nil {
		c = cache.Noop{}
	}
	return &postgresRepository{
		pool:    pool,
		cache:   c,
		builder: goqu.Dialect("postgres"),
	}
}

func (r *postgresRepository) Create(ctx context.Context, m *member.Member) (*member.Member, error) {
	query := `
		INSERT INTO members (id, name, email, phone, address, join_date, status,
		                     active_borrowings, total_borrowed, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0, 1, $8)
		RETURNING id, name, email, phone, address, join_date, status,
		          active_borrowings, total_borrowed, version, updated_at
	`
	rows, err := r.pool.Query(ctx, query,
		m.ID, m.Name, m.Email, m.Phone, m.Address, m.JoinDate, m.Status, m.UpdatedAt)
	if err != nil {
		return nil, mapWriteError("create member", err)
	}
	created, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[member.Member])
	if err != nil {
		return nil, mapWriteError("create member", err)
	}
	return created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*member.Member, error) {
	key := member.CacheKey(id)
	var cached member.Member
	if found, err := r.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	query, args, err := r.builder.From("members").Prepared(true).
		Select(memberColumns...).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, database.MapError("build member query", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, database.MapError("get member", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[member.Member])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, member.ErrMemberNotFound
	}
	if err != nil {
		return nil, database.MapError("get member", err)
	}

	if err := r.cache.Set(ctx, key, m, cacheTTL); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", key).Msg("member cache set failed")
	}
	return m, nil
}

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM members WHERE email = $1 AND id <> $2)`, email, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, database.MapError("check email", err)
	}
	return exists, nil
}

// List expects a normalized filter.
func (r *postgresRepository) List(ctx context.Context, filter member.MemberFilter) ([]member.Member, int64, error) {
	base := r.builder.From("members").Prepared(true)
	where := goqu.Ex{}
	if filter.Email != "" {
		where["email"] = member.NormalizeEmail(filter.Email)
	}
	if filter.Status != "" {
		where["status"] = string(filter.Status)
	}
	if len(where) > 0 {
		base = base.Where(where)
	}
	if filter.Name != "" {
		base = base.Where(goqu.C("name").ILike("%" + filter.Name + "%"))
	}
	if filter.Phone != "" {
		base = base.Where(goqu.C("phone").Like("%" + filter.Phone + "%"))
	}

	countSQL, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, database.MapError("build member count", err)
	}
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, database.MapError("count members", err)
	}

	order := goqu.C(filter.SortBy).Desc()
	if filter.Order == "asc" {
		order = goqu.C(filter.SortBy).Asc()
	}
	listSQL, listArgs, err := base.
		Select(memberColumns...).
		Order(order, goqu.C("id").Asc()).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, database.MapError("build member list", err)
	}

	members, err := r.query(ctx, "list members", listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (r *postgresRepository) Eligible(ctx context.Context, ceiling, limit int) ([]member.Member, error) {
	query, args, err := r.builder.From("members").Prepared(true).
		Select(memberColumns...).
		Where(
			goqu.C("status").Eq(string(member.StatusActive)),
			goqu.C("active_borrowings").Lt(ceiling),
		).
		Order(goqu.C("name").Asc(), goqu.C("id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, database.MapError("build eligible query", err)
	}
	return r.query(ctx, "eligible members", query, args...)
}

func (r *postgresRepository) MostActive(ctx context.Context, limit int) ([]member.Member, error) {
	query, args, err := r.builder.From("members").Prepared(true).
		Select(memberColumns...).
		Where(goqu.C("total_borrowed").Gt(0)).
		Order(goqu.C("total_borrowed").Desc(), goqu.C("name").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, database.MapError("build most active query", err)
	}
	return r.query(ctx, "most active members", query, args...)
}

// Update writes profile fields and status. Borrow counters belong to the
// borrowing engine and are left alone.
func (r *postgresRepository) Update(ctx context.Context, m *member.Member, currentVersion int) (*member.Member, error) {
	query := `
		UPDATE members
		SET name = $1, email = $2, phone = $3, address = $4, status = $5,
		    version = version + 1, updated_at = NOW()
		WHERE id = $6 AND version = $7
		RETURNING id, name, email, phone, address, join_date, status,
		          active_borrowings, total_borrowed, version, updated_at
	`
	rows, err := r.pool.Query(ctx, query,
		m.Name, m.Email, m.Phone, m.Address, m.Status, m.ID, currentVersion)
	if err != nil {
		return nil, mapWriteError("update member", err)
	}
	updated, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[member.Member])
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM members WHERE id = $1)`, m.ID).Scan(&exists); err != nil {
			return nil, database.MapError("check member", err)
		}
		if !exists {
			return nil, member.ErrMemberNotFound
		}
		return nil, member.ErrVersionConflict
	}
	if err != nil {
		return nil, mapWriteError("update member", err)
	}

	r.invalidate(ctx, m.ID)
	return updated, nil
}

// Delete removes a member who never borrowed. Members with lending history
// are kept; set them INACTIVE instead.
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM members
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM borrowings WHERE member_id = $1)`, id)
	if err != nil {
		return database.MapError("delete member", err)
	}
	if tag.RowsAffected() == 0 {
		var exists, lent, active bool
		err := r.pool.QueryRow(ctx, `
			SELECT
			    EXISTS (SELECT 1 FROM members WHERE id = $1),
			    EXISTS (SELECT 1 FROM borrowings WHERE member_id = $1),
			    EXISTS (SELECT 1 FROM borrowings WHERE member_id = $1 AND status IN `+activeStatuses+`)`,
			id,
		).Scan(&exists, &lent, &active)
		if err != nil {
			return database.MapError("check member dependents", err)
		}
		switch {
		case exists && active:
			return member.ErrMemberHasActiveBorrowings
		case exists && lent:
			return member.ErrMemberHasHistory
		}
		return member.ErrMemberNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresRepository) CountActiveBorrowings(ctx context.Context, id uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM borrowings WHERE member_id = $1 AND status IN `+activeStatuses, id,
	).Scan(&n)
	if err != nil {
		return 0, database.MapError("count member borrowings", err)
	}
	return n, nil
}

func (r *postgresRepository) query(ctx context.Context, op, sql string, args ...interface{}) ([]member.Member, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, database.MapError(op, err)
	}
	members, err := pgx.CollectRows(rows, pgx.RowToStructByName[member.Member])
	if err != nil {
		return nil, database.MapError(op, err)
	}
	return members, nil
}

func mapWriteError(op string, err error) error {
	if database.IsUniqueViolation(err, emailConstraint) {
		return member.ErrEmailAlreadyExists
	}
	return database.MapError(op, err)
}

func (r *postgresRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, member.CacheKey(id)); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("member_id", id.String()).Msg("member cache invalidation failed")
	}
}
