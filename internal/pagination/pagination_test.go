package pagination

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		in       Params
		order    SortOrder
		expected Params
	}{
		{name: "defaults", in: Params{}, order: DESC, expected: Params{Page: 1, Limit: 10, SortOrder: DESC}},
		{name: "limit capped", in: Params{Page: 2, Limit: 500}, order: DESC, expected: Params{Page: 2, Limit: 100, SortOrder: DESC}},
		{name: "negative page", in: Params{Page: -3, Limit: 5}, order: ASC, expected: Params{Page: 1, Limit: 5, SortOrder: ASC}},
		{name: "lowercase order", in: Params{Page: 1, Limit: 5, SortOrder: "asc"}, order: DESC, expected: Params{Page: 1, Limit: 5, SortOrder: ASC}},
		{name: "unknown order", in: Params{SortOrder: "sideways"}, order: "", expected: Params{Page: 1, Limit: 10, SortOrder: DESC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.in.Normalize(tt.order))
		})
	}
}

func TestBuildLinks_TwentyFiveItems(t *testing.T) {
	tests := []struct {
		page     int
		expected Links
	}{
		{
			page: 1,
			expected: Links{
				HasNext: true,
				Next:    "req-for-receipt?page=2&limit=10",
				Last:    "req-for-receipt?page=3&limit=10",
			},
		},
		{
			page: 2,
			expected: Links{
				HasNext:  true,
				First:    "req-for-receipt?page=1&limit=10",
				Previous: "req-for-receipt?page=1&limit=10",
				Next:     "req-for-receipt?page=3&limit=10",
				Last:     "req-for-receipt?page=3&limit=10",
			},
		},
		{
			page: 3,
			expected: Links{
				HasNext:  false,
				First:    "req-for-receipt?page=1&limit=10",
				Previous: "req-for-receipt?page=2&limit=10",
			},
		},
	}

	for _, tt := range tests {
		meta := BuildMetadata(25, tt.page, 10)
		assert.Equal(t, 3, meta.TotalPages)
		assert.Equal(t, tt.expected, BuildLinks("req-for-receipt", meta), "page %d", tt.page)
	}
}

func TestBuildMetadata_Empty(t *testing.T) {
	meta := BuildMetadata(0, 1, 10)
	assert.Equal(t, 0, meta.TotalPages)
	links := BuildLinks("notification", meta)
	assert.False(t, links.HasNext)
	assert.Empty(t, links.First)
	assert.Empty(t, links.Next)
}

func TestResolveSort(t *testing.T) {
	tests := []struct {
		sortBy, def, alias string
		expected           string
		wantErr            bool
	}{
		{sortBy: "", def: "createdAt", alias: "r", expected: "r.created_at"},
		{sortBy: "date", def: "createdAt", alias: "r", expected: "r.date"},
		{sortBy: "s.full_name", def: "createdAt", alias: "r", expected: "s.full_name"},
		{sortBy: "scheduledAt", def: "", alias: "", expected: "scheduled_at"},
		{sortBy: "id; DROP TABLE users", def: "id", alias: "r", wantErr: true},
		{sortBy: "a.b.c", def: "id", alias: "r", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ResolveSort(tt.sortBy, tt.def, tt.alias)
		if tt.wantErr {
			assert.Error(t, err, tt.sortBy)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestQuery_SQL(t *testing.T) {
	q := NewQuery("req_for_receipts", "r").
		Select("r.id", "s.full_name").
		Join("JOIN students s ON s.id = r.student_id").
		Where("r.deleted_at IS NULL").
		Where("s.parent_id = ?", int64(4)).
		WhereIn("r.status", []string{"PENDING", "APPROVED"})

	query, args := q.SQL("r.created_at DESC", 1)
	assert.Equal(t,
		"SELECT r.id, s.full_name FROM req_for_receipts r JOIN students s ON s.id = r.student_id "+
			"WHERE r.deleted_at IS NULL AND s.parent_id = ? AND r.status IN (?, ?) ORDER BY r.created_at DESC LIMIT ?",
		query)
	assert.Equal(t, []interface{}{int64(4), "PENDING", "APPROVED", 1}, args)

	countQuery, countArgs := q.CountSQL()
	assert.Equal(t,
		"SELECT COUNT(*) FROM req_for_receipts r JOIN students s ON s.id = r.student_id "+
			"WHERE r.deleted_at IS NULL AND s.parent_id = ? AND r.status IN (?, ?)",
		countQuery)
	assert.Len(t, countArgs, 3)
}

func TestQuery_WhereInEmpty(t *testing.T) {
	query, args := NewQuery("users", "u").WhereIn("u.id", []int64{}).SQL("", 0)
	assert.Equal(t, "SELECT u.* FROM users u WHERE FALSE", query)
	assert.Empty(t, args)
}

type itemRow struct {
	Counted
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func TestPaginate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	xdb := sqlx.NewDb(db, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT i.id, i.name, COUNT(*) OVER() AS total_count FROM items i WHERE i.kind = $1 ORDER BY i.created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("toy", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_count"}).
			AddRow(11, "kite", 25).
			AddRow(12, "yoyo", 25))

	q := NewQuery("items", "i").Select("i.id", "i.name").Where("i.kind = ?", "toy")
	page, err := Paginate[itemRow](context.Background(), xdb, q, Params{Page: 2, Limit: 10},
		Options{BasePath: "items", DefaultSortColumn: "createdAt", DefaultOrder: DESC})

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "kite", page.Items[0].Name)
	assert.Equal(t, int64(25), page.Metadata.TotalItems)
	assert.Equal(t, 3, page.Metadata.TotalPages)
	assert.True(t, page.Links.HasNext)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate_PastLastPageFallsBackToCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	xdb := sqlx.NewDb(db, "postgres")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT i.*, COUNT(*) OVER() AS total_count FROM items i ORDER BY i.id ASC LIMIT $1 OFFSET $2")).
		WithArgs(10, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_count"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM items i")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	page, err := Paginate[itemRow](context.Background(), xdb, NewQuery("items", "i"), Params{Page: 5, SortBy: "id", SortOrder: ASC},
		Options{BasePath: "items", DefaultSortColumn: "createdAt"})

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Equal(t, int64(25), page.Metadata.TotalItems)
	assert.False(t, page.Links.HasNext)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginate_RejectsBadSort(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = Paginate[itemRow](context.Background(), sqlx.NewDb(db, "postgres"), NewQuery("items", "i"),
		Params{SortBy: "name desc, (select 1)"}, Options{})
	assert.Error(t, err)
}

func TestPaginate_SortableWhitelist(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	xdb := sqlx.NewDb(db, "postgres")
	opts := Options{DefaultSortColumn: "createdAt", Sortable: []string{"i.created_at", "i.name"}}

	_, err = Paginate[itemRow](context.Background(), xdb, NewQuery("items", "i"), Params{SortBy: "price"}, opts)
	assert.ErrorIs(t, err, ErrInvalidSort)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT i.*, COUNT(*) OVER() AS total_count FROM items i ORDER BY i.name ASC LIMIT $1 OFFSET $2")).
		WithArgs(DefaultLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "total_count"}).AddRow(1, "kite", 1))

	page, err := Paginate[itemRow](context.Background(), xdb, NewQuery("items", "i"), Params{SortBy: "name", SortOrder: ASC}, opts)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMap(t *testing.T) {
	p := NewPage([]int{1, 2}, 2, Params{Page: 1, Limit: 10}, "n")
	out := Map(p, func(i int) string { return string(rune('a' + i)) })
	assert.Equal(t, []string{"b", "c"}, out.Items)
	assert.Equal(t, p.Metadata, out.Metadata)
}
