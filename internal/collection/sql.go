package collection

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"gql-listkit/internal/lookup"
	"gql-listkit/internal/model"
	"gql-listkit/internal/qerr"
	"gql-listkit/internal/sqlutil"
)

// Queryer is the subset of *sql.DB used by SQL collections.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// SQLProvider builds SQL-backed collections.
type SQLProvider struct {
	db Queryer
}

// NewSQLProvider creates a provider over the given executor.
func NewSQLProvider(db Queryer) *SQLProvider {
	return &SQLProvider{db: db}
}

// Base returns the unfiltered collection for an entity.
func (p *SQLProvider) Base(e *model.Entity) Collection {
	return &sqlCollection{
		db:     p.db,
		entity: e,
		offset: -1,
		limit:  -1,
	}
}

// sqlCollection is an immutable SQL query description. Every narrowing
// method copies, so a collection can be shared between the count and fetch
// paths without the slice window leaking into the count.
type sqlCollection struct {
	db     Queryer
	entity *model.Entity
	where  []sq.Sqlizer
	joins  []string // LEFT JOIN clauses introduced by relation ordering
	order  []string
	offset int
	limit  int
}

func (c *sqlCollection) clone() *sqlCollection {
	dup := *c
	dup.where = append([]sq.Sqlizer(nil), c.where...)
	dup.joins = append([]string(nil), c.joins...)
	dup.order = append([]string(nil), c.order...)
	return &dup
}

func (c *sqlCollection) Filter(preds []Predicate) (Collection, error) {
	dup := c.clone()
	for _, pred := range preds {
		cond, err := predicateCondition(c.entity, pred)
		if err != nil {
			return nil, err
		}
		dup.where = append(dup.where, cond)
	}
	return dup, nil
}

func (c *sqlCollection) Order(terms []OrderTerm) (Collection, error) {
	dup := c.clone()
	dup.order = nil
	dup.joins = nil
	seenJoins := make(map[string]bool)
	for _, term := range terms {
		direction := "ASC"
		if term.Desc {
			direction = "DESC"
		}
		if term.Path.Relation == nil {
			dup.order = append(dup.order, fmt.Sprintf(
				"%s %s",
				sqlutil.QuoteQualified(c.entity.TableName(), term.Path.Field.ColumnName()),
				direction,
			))
			continue
		}
		rel := term.Path.Relation
		if rel.ToMany {
			return nil, qerr.Validationf("ordering", term.Path.Path, "cannot order by to-many relation %q", rel.Name)
		}
		targetTable := term.Path.Target.TableName()
		if !seenJoins[rel.Name] {
			seenJoins[rel.Name] = true
			dup.joins = append(dup.joins, fmt.Sprintf(
				"%s ON %s = %s",
				sqlutil.QuoteIdentifier(targetTable),
				sqlutil.QuoteQualified(c.entity.TableName(), rel.LocalColumn),
				sqlutil.QuoteQualified(targetTable, rel.RemoteColumn),
			))
		}
		dup.order = append(dup.order, fmt.Sprintf(
			"%s %s",
			sqlutil.QuoteQualified(targetTable, term.Path.Field.ColumnName()),
			direction,
		))
	}
	return dup, nil
}

func (c *sqlCollection) Slice(offset, limit int) Collection {
	dup := c.clone()
	dup.offset = offset
	dup.limit = limit
	return dup
}

// Count ignores ordering, joins, and the slice window so the reported total
// depends only on the filters.
func (c *sqlCollection) Count(ctx context.Context) (int, error) {
	builder := sq.Select("COUNT(*)").From(sqlutil.QuoteIdentifier(c.entity.TableName()))
	for _, cond := range c.where {
		builder = builder.Where(cond)
	}
	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return 0, err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

func (c *sqlCollection) Fetch(ctx context.Context) ([]Record, error) {
	table := c.entity.TableName()
	cols := make([]string, len(c.entity.Fields))
	for i := range c.entity.Fields {
		cols[i] = sqlutil.QuoteQualified(table, c.entity.Fields[i].ColumnName())
	}

	builder := sq.Select(cols...).From(sqlutil.QuoteIdentifier(table))
	for _, join := range c.joins {
		builder = builder.LeftJoin(join)
	}
	for _, cond := range c.where {
		builder = builder.Where(cond)
	}
	if len(c.order) > 0 {
		builder = builder.OrderBy(c.order...)
	}
	if c.limit >= 0 {
		builder = builder.Limit(uint64(c.limit))
		if c.offset > 0 {
			builder = builder.Offset(uint64(c.offset))
		}
	}

	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanRecords(rows, c.entity)
}

func scanRecords(rows *sql.Rows, e *model.Entity) ([]Record, error) {
	columnNames := make([]string, len(e.Fields))
	for i := range e.Fields {
		columnNames[i] = e.Fields[i].ColumnName()
	}

	var out []Record
	for rows.Next() {
		values := make([]interface{}, len(columnNames))
		ptrs := make([]interface{}, len(columnNames))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(Record, len(columnNames))
		for i, name := range columnNames {
			if b, ok := values[i].([]byte); ok {
				record[name] = string(b)
			} else {
				record[name] = values[i]
			}
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// predicateCondition converts one predicate into a squirrel condition.
// Relation-path predicates become correlated EXISTS subqueries so filtering
// never multiplies root rows.
func predicateCondition(e *model.Entity, pred Predicate) (sq.Sqlizer, error) {
	if pred.Path.Relation == nil {
		column := sqlutil.QuoteQualified(e.TableName(), pred.Path.Field.ColumnName())
		return lookupCondition(column, pred)
	}

	rel := pred.Path.Relation
	targetTable := pred.Path.Target.TableName()
	inner, err := lookupCondition(sqlutil.QuoteQualified(targetTable, pred.Path.Field.ColumnName()), pred)
	if err != nil {
		return nil, err
	}

	correlation := fmt.Sprintf(
		"%s = %s",
		sqlutil.QuoteQualified(targetTable, rel.RemoteColumn),
		sqlutil.QuoteQualified(e.TableName(), rel.LocalColumn),
	)
	subquery, args, err := sq.Select("1").
		From(sqlutil.QuoteIdentifier(targetTable)).
		Where(sq.Expr(correlation)).
		Where(inner).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, err
	}
	return sq.Expr("EXISTS ("+subquery+")", args...), nil
}

func lookupCondition(column string, pred Predicate) (sq.Sqlizer, error) {
	value := pred.Value
	switch pred.Lookup {
	case lookup.Exact:
		return sq.Eq{column: value}, nil
	case lookup.IExact:
		return sq.Expr("LOWER("+column+") = LOWER(?)", value), nil
	case lookup.Contains:
		return likeCondition(column, pred, "%%%s%%", false)
	case lookup.IContains:
		return likeCondition(column, pred, "%%%s%%", true)
	case lookup.StartsWith:
		return likeCondition(column, pred, "%s%%", false)
	case lookup.IStartsWith:
		return likeCondition(column, pred, "%s%%", true)
	case lookup.EndsWith:
		return likeCondition(column, pred, "%%%s", false)
	case lookup.IEndsWith:
		return likeCondition(column, pred, "%%%s", true)
	case lookup.In:
		items, err := listValue(pred)
		if err != nil {
			return nil, err
		}
		return sq.Eq{column: items}, nil
	case lookup.GT:
		return sq.Gt{column: value}, nil
	case lookup.GTE:
		return sq.GtOrEq{column: value}, nil
	case lookup.LT:
		return sq.Lt{column: value}, nil
	case lookup.LTE:
		return sq.LtOrEq{column: value}, nil
	case lookup.Range:
		items, err := listValue(pred)
		if err != nil {
			return nil, err
		}
		if len(items) != 2 {
			return nil, qerr.Validationf(pred.ArgName, value, "range requires exactly two values")
		}
		return sq.Expr(column+" BETWEEN ? AND ?", items[0], items[1]), nil
	case lookup.IsNull:
		isNull, ok := value.(bool)
		if !ok {
			return nil, qerr.Validationf(pred.ArgName, value, "isnull requires a boolean")
		}
		if isNull {
			return sq.Eq{column: nil}, nil
		}
		return sq.NotEq{column: nil}, nil
	case lookup.Year, lookup.Month, lookup.Day, lookup.WeekDay, lookup.Hour, lookup.Minute, lookup.Second:
		fn, ok := datePartFunctions[pred.Lookup]
		if !ok {
			return nil, qerr.Validationf(pred.ArgName, value, "unsupported date lookup")
		}
		return sq.Expr(fn+"("+column+") = ?", value), nil
	default:
		return nil, qerr.Validationf(pred.ArgName, value, "unknown lookup operator %q", pred.Lookup)
	}
}

var datePartFunctions = map[lookup.Lookup]string{
	lookup.Year:    "YEAR",
	lookup.Month:   "MONTH",
	lookup.Day:     "DAYOFMONTH",
	lookup.WeekDay: "DAYOFWEEK",
	lookup.Hour:    "HOUR",
	lookup.Minute:  "MINUTE",
	lookup.Second:  "SECOND",
}

func likeCondition(column string, pred Predicate, pattern string, foldCase bool) (sq.Sqlizer, error) {
	str, ok := pred.Value.(string)
	if !ok {
		return nil, qerr.Validationf(pred.ArgName, pred.Value, "%s requires a string", pred.Lookup)
	}
	escaped := escapeLike(str)
	rendered := fmt.Sprintf(pattern, escaped)
	if foldCase {
		return sq.Expr("LOWER("+column+") LIKE LOWER(?)", rendered), nil
	}
	return sq.Like{column: rendered}, nil
}

// escapeLike neutralizes LIKE metacharacters in client-supplied substrings.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

func listValue(pred Predicate) ([]interface{}, error) {
	switch v := pred.Value.(type) {
	case []interface{}:
		return v, nil
	case []string:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, nil
	default:
		return nil, qerr.Validationf(pred.ArgName, pred.Value, "%s requires a list", pred.Lookup)
	}
}
