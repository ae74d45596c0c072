// Package filter composes the WHERE and ORDER BY parts of the activity and
// meal listing queries from optional request criteria.
package filter

import (
	"fmt"
	"strings"
	"time"

	"zakfit/api/internal/models"
	"zakfit/api/internal/window"
)

// Query holds positional predicates ready for pgx. Predicates are joined
// with AND.
type Query struct {
	Where   []string
	Args    []any
	OrderBy string
}

func (q *Query) arg(v any) string {
	q.Args = append(q.Args, v)
	return fmt.Sprintf("$%d", len(q.Args))
}

func (q *Query) add(format string, vals ...any) {
	refs := make([]any, len(vals))
	for i, v := range vals {
		refs[i] = q.arg(v)
	}
	q.Where = append(q.Where, fmt.Sprintf(format, refs...))
}

// WhereSQL renders the predicates, or "TRUE" when there are none.
func (q Query) WhereSQL() string {
	if len(q.Where) == 0 {
		return "TRUE"
	}
	return strings.Join(q.Where, " AND ")
}

// Criteria are the optional filters shared by activities and meals. Dates
// are yyyy-MM-dd strings in the application's location; values that do not
// parse are ignored.
type Criteria struct {
	Date   string
	Start  string
	End    string
	Period string
	Sort   string
}

// ActivityCriteria adds the resolved activity type ids. An empty TypeIDs
// means the type filter is skipped, including when a requested type name
// matched nothing.
type ActivityCriteria struct {
	Criteria
	TypeIDs []string
}

type MealCriteria struct {
	Criteria
	Type string
}

func sortDirection(s string) string {
	if window.Normalize(s) == "asc" {
		return "ASC"
	}
	return "DESC"
}

func (q *Query) addDates(col string, c Criteria, now time.Time) {
	loc := now.Location()
	if d, ok := window.ParseDay(c.Date, loc); ok {
		r := window.DayRange(d)
		q.add(col+" >= %s AND "+col+" < %s", r.From, r.To)
	}
	if s, ok := window.ParseDay(c.Start, loc); ok {
		if e, ok := window.ParseDay(c.End, loc); ok {
			r := window.SpanRange(s, e)
			q.add(col+" >= %s AND "+col+" < %s", r.From, r.To)
		}
	}
	if from, ok := window.PeriodStart(c.Period, now); ok {
		q.add(col+" >= %s", from)
	}
}

// Activities builds the listing query for the caller's activities, aliased
// as "a". Rows are ordered by duration, descending unless Sort is "asc".
func Activities(userID string, c ActivityCriteria, now time.Time) Query {
	var q Query
	q.add("a.user_id = %s", userID)
	if len(c.TypeIDs) > 0 {
		q.add("a.activity_type_id = ANY(%s::uuid[])", c.TypeIDs)
	}
	q.addDates("a.occurred_at", c.Criteria, now)
	q.OrderBy = "a.duration_min " + sortDirection(c.Sort) + " NULLS LAST, a.id ASC"
	return q
}

// Meals builds the listing query for the caller's meals, aliased as "m".
// Unknown meal types are ignored. Rows are ordered by date.
func Meals(userID string, c MealCriteria, now time.Time) Query {
	var q Query
	q.add("m.user_id = %s", userID)
	if t := window.Normalize(c.Type); models.IsOneOf(t, models.MealTypes) {
		q.add("m.meal_type = %s", t)
	}
	q.addDates("m.eaten_at", c.Criteria, now)
	q.OrderBy = "m.eaten_at " + sortDirection(c.Sort) + ", m.id ASC"
	return q
}
