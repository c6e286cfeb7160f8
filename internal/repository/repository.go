package repository

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/bookvault/inventory-service/internal/errs"
	"github.com/bookvault/inventory-service/internal/model"
)

type Repository interface {
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, bookUid string) error
	ListBooks(ctx context.Context, q model.ListBooksQuery) ([]model.Book, error)
	CountBooks(ctx context.Context, q model.ListBooksQuery) (int, error)
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const booksTableName = `books`

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var bookColumns = []string{
	"book_uid", "book_name", "author_name", "cover_images", "year",
	"price", "discount", "number_of_pages", "condition", "description",
	"created_at", "updated_at",
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	book.BookUid = uuid.NewString()
	query, args, err := qb.Insert(booksTableName).
		Columns(bookColumns...).
		Values(book.BookUid, book.BookName, book.AuthorName, book.CoverImages, book.Year,
			book.Price, book.Discount, book.NumberOfPages, book.Condition, book.Description,
			book.CreatedAt, book.UpdatedAt).
		Suffix("RETURNING " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var created model.Book
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Error(err))
		return model.Book{}, mapErr(err, "create book")
	}

	return created, nil
}

func (r *repository) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, mapErr(err, "get book")
	}

	return book, nil
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("book_name", book.BookName).
		Set("author_name", book.AuthorName).
		Set("cover_images", book.CoverImages).
		Set("year", book.Year).
		Set("price", book.Price).
		Set("discount", book.Discount).
		Set("number_of_pages", book.NumberOfPages).
		Set("condition", book.Condition).
		Set("description", book.Description).
		Set("updated_at", book.UpdatedAt).
		Where(sq.Eq{"book_uid": book.BookUid}).
		Suffix("RETURNING " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var updated model.Book
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		r.log.Error("UpdateBook", zap.String("q", query), zap.Error(err))
		return model.Book{}, mapErr(err, "update book")
	}

	return updated, nil
}

func (r *repository) DeleteBook(ctx context.Context, bookUid string) error {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"book_uid": bookUid}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapErr(err, "delete book")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete book")
	}
	if affected == 0 {
		return errs.ErrNotFound
	}

	return nil
}

func (r *repository) ListBooks(ctx context.Context, q model.ListBooksQuery) ([]model.Book, error) {
	query, args, err := buildListQuery(q)
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, mapErr(err, "list books")
	}

	return books, nil
}

func (r *repository) CountBooks(ctx context.Context, q model.ListBooksQuery) (int, error) {
	query, args, err := buildCountQuery(q)
	if err != nil {
		return 0, err
	}

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, mapErr(err, "count books")
	}

	return total, nil
}

func buildListQuery(q model.ListBooksQuery) (string, []interface{}, error) {
	b := applyFilter(qb.Select(bookColumns...).From(booksTableName), q).
		OrderBy(orderClause(q)).
		Limit(uint64(q.Limit)).
		Offset(uint64((q.Page - 1) * q.Limit))
	return b.ToSql()
}

func buildCountQuery(q model.ListBooksQuery) (string, []interface{}, error) {
	return applyFilter(qb.Select("count(*)").From(booksTableName), q).ToSql()
}

// applyFilter adds a conjunction term per supplied filter only.
func applyFilter(b sq.SelectBuilder, q model.ListBooksQuery) sq.SelectBuilder {
	if q.Author != nil {
		b = b.Where(sq.Eq{"author_name": *q.Author})
	}
	if q.Year != nil {
		b = b.Where(sq.Eq{"year": *q.Year})
	}
	if q.MaxPrice != nil {
		b = b.Where(sq.LtOrEq{"price": *q.MaxPrice})
	}
	if q.Condition != nil {
		b = b.Where(sq.Eq{"condition": *q.Condition})
	}
	return b
}

var sortColumns = map[string]string{
	"bookName":   "book_name",
	"authorName": "author_name",
	"year":       "year",
	"price":      "price",
	"createdAt":  "created_at",
}

func orderClause(q model.ListBooksQuery) string {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "book_name"
	}
	dir := "ASC"
	if strings.EqualFold(q.Order, "desc") {
		dir = "DESC"
	}
	return col + " " + dir
}

func mapErr(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation, pgerrcode.InvalidTextRepresentation, pgerrcode.NumericValueOutOfRange:
			return errs.ErrInvalidData
		}
	}
	return errors.Wrap(err, msg)
}
