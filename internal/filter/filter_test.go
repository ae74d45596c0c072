package filter

import (
	"reflect"
	"testing"
	"time"
)

var loc = time.FixedZone("CET", 3600)

// Thursday.
var now = time.Date(2025, time.November, 27, 15, 4, 5, 0, loc)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestActivitiesNoCriteria(t *testing.T) {
	q := Activities("u1", ActivityCriteria{}, now)

	if got := q.WhereSQL(); got != "a.user_id = $1" {
		t.Errorf("WhereSQL() = %q", got)
	}
	if !reflect.DeepEqual(q.Args, []any{"u1"}) {
		t.Errorf("Args = %v", q.Args)
	}
	if q.OrderBy != "a.duration_min DESC NULLS LAST, a.id ASC" {
		t.Errorf("OrderBy = %q", q.OrderBy)
	}
}

func TestActivitiesTypeFilterSkippedWhenUnresolved(t *testing.T) {
	with := Activities("u1", ActivityCriteria{TypeIDs: nil}, now)
	without := Activities("u1", ActivityCriteria{}, now)
	if with.WhereSQL() != without.WhereSQL() || !reflect.DeepEqual(with.Args, without.Args) {
		t.Errorf("unresolved type changed the query: %q vs %q", with.WhereSQL(), without.WhereSQL())
	}
}

func TestActivitiesAllCriteria(t *testing.T) {
	c := ActivityCriteria{
		Criteria: Criteria{
			Date:   "2025-11-25",
			Start:  "2025-11-24",
			End:    "2025-11-26",
			Period: "week",
			Sort:   "ASC",
		},
		TypeIDs: []string{"t1", "t2"},
	}
	q := Activities("u1", c, now)

	wantWhere := "a.user_id = $1 AND a.activity_type_id = ANY($2::uuid[]) AND " +
		"a.occurred_at >= $3 AND a.occurred_at < $4 AND " +
		"a.occurred_at >= $5 AND a.occurred_at < $6 AND " +
		"a.occurred_at >= $7"
	if got := q.WhereSQL(); got != wantWhere {
		t.Errorf("WhereSQL() =\n%q\nwant\n%q", got, wantWhere)
	}
	wantArgs := []any{
		"u1", []string{"t1", "t2"},
		day(2025, time.November, 25), day(2025, time.November, 26),
		day(2025, time.November, 24), day(2025, time.November, 27),
		day(2025, time.November, 24),
	}
	if !reflect.DeepEqual(q.Args, wantArgs) {
		t.Errorf("Args =\n%v\nwant\n%v", q.Args, wantArgs)
	}
	if q.OrderBy != "a.duration_min ASC NULLS LAST, a.id ASC" {
		t.Errorf("OrderBy = %q", q.OrderBy)
	}
}

func TestActivitiesDateUpperBoundIsExclusive(t *testing.T) {
	q := Activities("u1", ActivityCriteria{Criteria: Criteria{Date: "2025-11-25"}}, now)
	if q.Where[1] != "a.occurred_at >= $2 AND a.occurred_at < $3" {
		t.Fatalf("date predicate = %q", q.Where[1])
	}
	if end := q.Args[2].(time.Time); !end.Equal(day(2025, time.November, 26)) {
		t.Errorf("upper bound = %v, want next midnight", end)
	}
}

func TestActivitiesIgnoresBadInput(t *testing.T) {
	c := ActivityCriteria{Criteria: Criteria{
		Date:   "yesterday",
		Start:  "2025-11-24",
		Period: "decade",
		Sort:   "sideways",
	}}
	q := Activities("u1", c, now)
	if len(q.Where) != 1 {
		t.Errorf("Where = %v, want owner predicate only", q.Where)
	}
	if q.OrderBy != "a.duration_min DESC NULLS LAST, a.id ASC" {
		t.Errorf("OrderBy = %q", q.OrderBy)
	}
}

func TestActivitiesMonthPeriod(t *testing.T) {
	q := Activities("u1", ActivityCriteria{Criteria: Criteria{Period: "month"}}, now)
	if len(q.Args) != 2 || !q.Args[1].(time.Time).Equal(day(2025, time.November, 1)) {
		t.Errorf("Args = %v", q.Args)
	}
}

func TestMeals(t *testing.T) {
	q := Meals("u1", MealCriteria{Type: "Lunch", Criteria: Criteria{Date: "2025-11-25"}}, now)
	want := "m.user_id = $1 AND m.meal_type = $2 AND m.eaten_at >= $3 AND m.eaten_at < $4"
	if got := q.WhereSQL(); got != want {
		t.Errorf("WhereSQL() = %q, want %q", got, want)
	}
	if q.Args[1] != "lunch" {
		t.Errorf("meal type arg = %v", q.Args[1])
	}
	if q.OrderBy != "m.eaten_at DESC, m.id ASC" {
		t.Errorf("OrderBy = %q", q.OrderBy)
	}

	q = Meals("u1", MealCriteria{Type: "brunch", Criteria: Criteria{Sort: "asc"}}, now)
	if len(q.Where) != 1 || q.OrderBy != "m.eaten_at ASC, m.id ASC" {
		t.Errorf("unknown type: Where = %v, OrderBy = %q", q.Where, q.OrderBy)
	}
}

func TestWhereSQLEmpty(t *testing.T) {
	if got := (Query{}).WhereSQL(); got != "TRUE" {
		t.Errorf("WhereSQL() = %q", got)
	}
}
