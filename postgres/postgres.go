// Package postgres serves list queries from PostgreSQL tables that follow the
// collection conventions: an id primary key and a created_at timestamp.
package postgres

import (
	"context"
	goerrors "errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/supakorn-kn/propadmin/collection"
	"github.com/supakorn-kn/propadmin/errors"
)

const (
	backendName = "postgres"
	tableAlias  = "t"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// The count and the page of one fetch read the same snapshot.
var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// Querier is the part of *pgxpool.Pool the backend uses.
type Querier interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Backend struct {
	db Querier
}

func NewBackend(db Querier) *Backend {
	return &Backend{db: db}
}

// Connect opens a pool and checks it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.TransportError.Wrap(err, backendName)
	}

	return pool, nil
}

func (b *Backend) Query(ctx context.Context, req collection.Request) (collection.Page, error) {

	tx, err := b.db.BeginTx(ctx, snapshotTx)
	if err != nil {
		return collection.Page{}, classify(err, req.Collection)
	}

	page, err := queryPage(ctx, tx, req)
	if err != nil {
		_ = tx.Rollback(ctx)
		return collection.Page{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return collection.Page{}, classify(err, req.Collection)
	}

	return page, nil
}

func queryPage(ctx context.Context, tx pgx.Tx, req collection.Request) (collection.Page, error) {

	countQuery, err := CountQuery(req)
	if err != nil {
		return collection.Page{}, err
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return collection.Page{}, err
	}

	var total int64
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return collection.Page{}, classify(err, req.Collection)
	}

	page := collection.Page{Rows: []collection.Record{}, Count: int(total)}
	if total == 0 || req.From >= int(total) {
		return page, nil
	}

	selectQuery, err := SelectQuery(req)
	if err != nil {
		return collection.Page{}, err
	}

	selectSQL, selectArgs, err := selectQuery.ToSql()
	if err != nil {
		return collection.Page{}, err
	}

	rows, err := tx.Query(ctx, selectSQL, selectArgs...)
	if err != nil {
		return collection.Page{}, classify(err, req.Collection)
	}
	defer rows.Close()

	for rows.Next() {

		values, err := rows.Values()
		if err != nil {
			return collection.Page{}, classify(err, req.Collection)
		}

		rec := make(collection.Record, len(values))
		for i, field := range rows.FieldDescriptions() {
			rec[field.Name] = toValue(values[i])
		}

		page.Rows = append(page.Rows, rec)
	}

	if err := rows.Err(); err != nil {
		return collection.Page{}, classify(err, req.Collection)
	}

	return page, nil
}

func (b *Backend) Delete(ctx context.Context, collectionName, id string) error {

	sql, args, err := psql.Delete(pgx.Identifier{collectionName}.Sanitize()).
		Where(sq.Eq{collection.IDField: id}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := b.db.Exec(ctx, sql, args...)
	if err != nil {
		return classify(err, collectionName)
	}

	if tag.RowsAffected() == 0 {
		return errors.ObjectIDNotFoundError.New(id)
	}

	return nil
}

// CountQuery counts every row matching the search filter.
func CountQuery(req collection.Request) (sq.SelectBuilder, error) {

	query := psql.Select("count(*)").From(fromClause(req.Collection))

	return applyFilter(query, req)
}

// SelectQuery selects the projected rows of the requested range, newest first.
func SelectQuery(req collection.Request) (sq.SelectBuilder, error) {

	query := psql.Select(columns(req.Projection)...).From(fromClause(req.Collection))

	for _, rel := range req.Projection.Relations {
		query = query.LeftJoin(joinClause(rel))
	}

	query, err := applyFilter(query, req)
	if err != nil {
		return query, err
	}

	return query.
		OrderBy(column(collection.CreatedAtField)+" DESC", column(collection.IDField)+" DESC").
		Limit(uint64(max(req.Limit(), 1))).
		Offset(uint64(max(req.From, 0))), nil
}

func applyFilter(query sq.SelectBuilder, req collection.Request) (sq.SelectBuilder, error) {

	if !req.Filtered() {
		return query, nil
	}

	field := column(req.SearchField) + "::text"

	switch req.MatchType {
	case collection.EqualMatchType:
		return query.Where(sq.Expr(field+" = ?", req.SearchTerm)), nil
	case collection.PartialMatchType:
		return query.Where(sq.Expr(field+" ILIKE ?", "%"+escapeLike(req.SearchTerm)+"%")), nil
	case collection.StartWithMatchType:
		return query.Where(sq.Expr(field+" ILIKE ?", escapeLike(req.SearchTerm)+"%")), nil
	case collection.EndWithMatchType:
		return query.Where(sq.Expr(field+" ILIKE ?", "%"+escapeLike(req.SearchTerm))), nil
	default:
		return query, errors.MatchTypeInvalidError.New(req.MatchType)
	}
}

func columns(p collection.Projection) []string {

	var cols []string
	if p.All {
		cols = append(cols, pgx.Identifier{tableAlias}.Sanitize()+".*")
	}

	for _, field := range p.Fields {
		cols = append(cols, column(field))
	}

	for _, rel := range p.Relations {

		alias := pgx.Identifier{rel.Alias}.Sanitize()
		object := "row_to_json(" + alias + ")"
		if !rel.AllFields() {
			pairs := make([]string, 0, len(rel.Fields))
			for _, field := range rel.Fields {
				pairs = append(pairs, "'"+field+"', "+pgx.Identifier{rel.Alias, field}.Sanitize())
			}
			object = "json_build_object(" + strings.Join(pairs, ", ") + ")"
		}

		cols = append(cols, "CASE WHEN "+pgx.Identifier{rel.Alias, collection.IDField}.Sanitize()+
			" IS NULL THEN NULL ELSE "+object+" END AS "+alias)
	}

	return cols
}

func fromClause(table string) string {
	return pgx.Identifier{table}.Sanitize() + " AS " + pgx.Identifier{tableAlias}.Sanitize()
}

func joinClause(rel collection.Relation) string {

	return pgx.Identifier{rel.Collection}.Sanitize() + " AS " + pgx.Identifier{rel.Alias}.Sanitize() +
		" ON " + pgx.Identifier{rel.Alias, collection.IDField}.Sanitize() + " = " + column(rel.LocalKey)
}

func column(name string) string {
	return pgx.Identifier{tableAlias, name}.Sanitize()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func toValue(value any) any {

	switch v := value.(type) {
	case [16]byte:
		return uuid.UUID(v).String()
	case pgtype.Numeric:
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case map[string]any:
		for key, nested := range v {
			v[key] = toValue(nested)
		}
		return v
	default:
		return v
	}
}

func classify(err error, table string) error {

	if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) {
		return errors.BackendQueryError.Wrap(err, table)
	}

	return errors.TransportError.Wrap(err, backendName)
}
