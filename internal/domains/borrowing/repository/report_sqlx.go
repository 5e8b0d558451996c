package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"library-backend/internal/domains/borrowing"
	"library-backend/internal/infrastructure/database"
	"library-backend/pkg/logger"
)

const dialectPostgres = "postgres"

// reportRepository serves borrowing reads over a sqlx handle. Queries are
// built with goqu so optional filters compose without string concatenation.
type reportRepository struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
}

func NewReportRepository(db *sqlx.DB) borrowing.Repository {
	return &reportRepository{
		db:      db,
		builder: goqu.Dialect(dialectPostgres),
	}
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*borrowing.Borrowing, error) {
	query, args, err := r.builder.From("borrowings").
		Prepared(true).
		Select(borrowingSelect()...).
		Where(goqu.C("id").Eq(id.String())).
		ToSQL()
	if err != nil {
		return nil, database.MapError("build borrowing query", err)
	}

	var b borrowing.Borrowing
	if err := r.db.GetContext(ctx, &b, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, borrowing.ErrBorrowingNotFound
		}
		return nil, database.MapError("get borrowing", err)
	}
	return &b, nil
}

func (r *reportRepository) List(ctx context.Context, filter borrowing.BorrowingFilter) ([]borrowing.Borrowing, int64, error) {
	base := r.builder.From("borrowings").Prepared(true)
	where := goqu.Ex{}
	if filter.MemberID != "" {
		where["member_id"] = filter.MemberID
	}
	if filter.BookID != "" {
		where["book_id"] = filter.BookID
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	if len(where) > 0 {
		base = base.Where(where)
	}

	countSQL, countArgs, err := base.Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return nil, 0, database.MapError("build borrowing count", err)
	}
	var total int64
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, database.MapError("count borrowings", err)
	}

	listSQL, listArgs, err := base.
		Select(borrowingSelect()...).
		Order(goqu.C("borrow_date").Desc(), goqu.C("created_at").Desc(), goqu.C("id").Asc()).
		Limit(uint(filter.Limit)).
		Offset(uint(filter.Offset)).
		ToSQL()
	if err != nil {
		return nil, 0, database.MapError("build borrowing list", err)
	}

	items := []borrowing.Borrowing{}
	if err := r.db.SelectContext(ctx, &items, listSQL, listArgs...); err != nil {
		return nil, 0, database.MapError("list borrowings", err)
	}

	logger.FromContext(ctx).Debug().
		Int("returned", len(items)).
		Int64("total", total).
		Msg("borrowings listed")
	return items, total, nil
}

func (r *reportRepository) ListOverdue(ctx context.Context, asOf time.Time, limit int) ([]borrowing.OverdueItem, error) {
	query, args, err := r.builder.
		From(goqu.T("borrowings").As("br")).
		Prepared(true).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("br.member_id")))).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("br.book_id")))).
		Select(
			goqu.I("br.id").As("borrowing_id"),
			goqu.I("br.member_id"),
			goqu.I("m.name").As("member_name"),
			goqu.I("m.email").As("member_email"),
			goqu.I("br.book_id"),
			goqu.I("b.title").As("book_title"),
			goqu.I("br.due_date"),
			goqu.I("br.status"),
		).
		Where(
			goqu.I("br.status").In(string(borrowing.StatusBorrowed), string(borrowing.StatusOverdue)),
			goqu.I("br.due_date").Lt(asOf),
		).
		Order(goqu.I("br.due_date").Asc(), goqu.I("br.id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, database.MapError("build overdue query", err)
	}

	items := []borrowing.OverdueItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, database.MapError("list overdue", err)
	}
	return items, nil
}

type statusCount struct {
	Status borrowing.Status `db:"status"`
	N      int              `db:"n"`
}

func (r *reportRepository) CountByStatus(ctx context.Context) (map[borrowing.Status]int, error) {
	query, args, err := r.builder.From("borrowings").
		Select(goqu.C("status"), goqu.COUNT("*").As("n")).
		GroupBy(goqu.C("status")).
		ToSQL()
	if err != nil {
		return nil, database.MapError("build status count", err)
	}

	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, database.MapError("count by status", err)
	}
	counts := make(map[borrowing.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}

func (r *reportRepository) TotalFines(ctx context.Context) (decimal.Decimal, error) {
	query, args, err := r.builder.From("borrowings").
		Select(goqu.COALESCE(goqu.SUM("fine_amount"), 0).As("total")).
		ToSQL()
	if err != nil {
		return decimal.Zero, database.MapError("build fines query", err)
	}

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return decimal.Zero, database.MapError("total fines", err)
	}
	return total, nil
}

func borrowingSelect() []interface{} {
	return []interface{}{
		"id", "member_id", "book_id", "borrow_date", "due_date", "return_date",
		"status", "fine_amount", "notes", "version", "created_at", "updated_at",
	}
}
