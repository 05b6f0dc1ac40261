package pagination

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"
)

// ErrInvalidSort is returned when a sort column is not a plain identifier.
var ErrInvalidSort = errors.New("invalid sort column")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DB is satisfied by *sqlx.DB and *sqlx.Tx.
type DB interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

// Query is a composable SELECT. Conditions use "?" placeholders and are
// rebound for the target database when executed.
type Query struct {
	from    string
	alias   string
	columns []string
	joins   []string
	conds   []string
	args    []interface{}
}

// NewQuery starts a query over table aliased as alias.
func NewQuery(table, alias string) *Query {
	return &Query{from: table, alias: alias}
}

func (q *Query) Select(columns ...string) *Query {
	q.columns = append(q.columns, columns...)
	return q
}

// Join appends a raw join clause such as "LEFT JOIN schools sc ON sc.id = s.school_id".
func (q *Query) Join(clause string) *Query {
	q.joins = append(q.joins, clause)
	return q
}

// Where ANDs a condition.
func (q *Query) Where(cond string, args ...interface{}) *Query {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
	return q
}

// WhereIn ANDs "column IN (...)". An empty list matches nothing.
func (q *Query) WhereIn(column string, values interface{}) *Query {
	cond, args, err := sqlx.In(column+" IN (?)", values)
	if err != nil {
		return q.Where("FALSE")
	}
	return q.Where(cond, args...)
}

// Clone returns an independent copy.
func (q *Query) Clone() *Query {
	c := *q
	c.columns = append([]string(nil), q.columns...)
	c.joins = append([]string(nil), q.joins...)
	c.conds = append([]string(nil), q.conds...)
	c.args = append([]interface{}(nil), q.args...)
	return &c
}

func (q *Query) body() string {
	var b strings.Builder
	fmt.Fprintf(&b, " FROM %s %s", q.from, q.alias)
	for _, j := range q.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if len(q.conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.conds, " AND "))
	}
	return b.String()
}

func (q *Query) selectList() string {
	if len(q.columns) == 0 {
		return q.alias + ".*"
	}
	return strings.Join(q.columns, ", ")
}

// SQL renders the SELECT with an optional ORDER BY and LIMIT (0 means none).
func (q *Query) SQL(orderBy string, limit int) (string, []interface{}) {
	s := "SELECT " + q.selectList() + q.body()
	args := append([]interface{}(nil), q.args...)
	if orderBy != "" {
		s += " ORDER BY " + orderBy
	}
	if limit > 0 {
		s += " LIMIT ?"
		args = append(args, limit)
	}
	return s, args
}

// CountSQL renders a COUNT(*) over the same joins and conditions.
func (q *Query) CountSQL() (string, []interface{}) {
	return "SELECT COUNT(*)" + q.body(), append([]interface{}(nil), q.args...)
}

// ResolveSort picks sortBy over defaultColumn, converts camelCase names to
// snake_case and qualifies undotted names with alias.
func ResolveSort(sortBy, defaultColumn, alias string) (string, error) {
	col := sortBy
	if col == "" {
		col = defaultColumn
	}
	if !identifierPattern.MatchString(col) {
		return "", fmt.Errorf("%w %q", ErrInvalidSort, col)
	}
	if !strings.Contains(col, ".") {
		col = toSnake(col)
		if alias != "" {
			col = alias + "." + col
		}
	}
	return col, nil
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Counter is implemented by row types embedding Counted.
type Counter interface {
	Total() int64
}

// Counted carries the window-function total selected alongside every row.
type Counted struct {
	TotalCount int64 `db:"total_count" json:"-"`
}

func (c Counted) Total() int64 { return c.TotalCount }

// Options configure a single Paginate call. When Sortable is set, the
// resolved sort column must be one of its entries.
type Options struct {
	BasePath          string
	DefaultSortColumn string
	DefaultOrder      SortOrder
	Sortable          []string
}

func allowed(col string, sortable []string) bool {
	if len(sortable) == 0 {
		return true
	}
	for _, s := range sortable {
		if s == col {
			return true
		}
	}
	return false
}

// Paginate fetches one page of q together with the total row count.
func Paginate[T Counter](ctx context.Context, db DB, q *Query, params Params, opts Options) (*Page[T], error) {
	params = params.Normalize(opts.DefaultOrder)

	sortCol, err := ResolveSort(params.SortBy, opts.DefaultSortColumn, q.alias)
	if err != nil {
		return nil, err
	}
	if !allowed(sortCol, opts.Sortable) {
		return nil, fmt.Errorf("%w %q", ErrInvalidSort, params.SortBy)
	}

	fetch := q.Clone()
	if len(fetch.columns) == 0 {
		fetch.Select(fetch.alias + ".*")
	}
	fetch.Select("COUNT(*) OVER() AS total_count")
	query, args := fetch.SQL(fmt.Sprintf("%s %s", sortCol, params.SortOrder), params.Limit)
	query += " OFFSET ?"
	args = append(args, params.Offset())

	var rows []T
	if err := sqlx.SelectContext(ctx, db, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("paginate fetch: %w", err)
	}

	var total int64
	switch {
	case len(rows) > 0:
		total = rows[0].Total()
	case params.Page > 1:
		// Past the last page the window total is unavailable.
		countQuery, countArgs := q.CountSQL()
		if err := sqlx.GetContext(ctx, db, &total, db.Rebind(countQuery), countArgs...); err != nil {
			return nil, fmt.Errorf("paginate count: %w", err)
		}
	}

	return NewPage(rows, total, params, opts.BasePath), nil
}
