// Package catalog holds the fixed set of analytical benchmark queries.
// The catalog is an immutable value injected into the timing harness so
// tests can substitute a reduced set against a fake store.
package catalog

import (
	"fmt"
	"strings"
)

// QuerySpec is one named benchmark query.
type QuerySpec struct {
	ID  string
	SQL string
}

// Catalog is an ordered, immutable set of benchmark queries with unique ids.
type Catalog struct {
	queries []QuerySpec
}

// New builds a catalog from the given specs. Query ids must be unique
// and non-empty; SQL text is normalized by trimming whitespace and a
// trailing semicolon.
func New(specs []QuerySpec) (Catalog, error) {
	seen := make(map[string]struct{}, len(specs))
	queries := make([]QuerySpec, 0, len(specs))

	for i, spec := range specs {
		if spec.ID == "" {
			return Catalog{}, fmt.Errorf("query %d: id is required", i)
		}

		if _, exists := seen[spec.ID]; exists {
			return Catalog{}, fmt.Errorf("query %d: duplicate id %q", i, spec.ID)
		}

		seen[spec.ID] = struct{}{}

		sql := strings.TrimSpace(spec.SQL)
		sql = strings.TrimSuffix(sql, ";")

		if sql == "" {
			return Catalog{}, fmt.Errorf("query %q: sql is required", spec.ID)
		}

		queries = append(queries, QuerySpec{ID: spec.ID, SQL: sql})
	}

	return Catalog{queries: queries}, nil
}

// Queries returns the specs in declaration order. The returned slice is
// a copy; mutating it does not affect the catalog.
func (c Catalog) Queries() []QuerySpec {
	out := make([]QuerySpec, len(c.queries))
	copy(out, c.queries)

	return out
}

// Len returns the number of queries in the catalog.
func (c Catalog) Len() int {
	return len(c.queries)
}

// Default returns the built-in catalog of analytical queries over the
// clean and marts layers of the taxi warehouse.
func Default() Catalog {
	c, err := New(defaultQueries)
	if err != nil {
		// The built-in set is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}

	return c
}

var defaultQueries = []QuerySpec{
	{
		ID: "q1_top_pickup_zones_day",
		SQL: `
select
  pu_location_id,
  count(*) as trips
from clean.clean_yellow_trips
where pickup_ts >= timestamp '2024-01-31 00:00:00'
  and pickup_ts <  timestamp '2024-02-01 00:00:00'
group by 1
order by trips desc
limit 20`,
	},
	{
		ID: "q2_revenue_by_day",
		SQL: `
select
  pickup_ts::date as trip_date,
  count(*) as trips,
  sum(total_amount) as revenue
from clean.clean_yellow_trips
group by 1
order by 1`,
	},
	{
		ID: "q2_mart_daily_revenue",
		SQL: `
select
  trip_date,
  trips,
  revenue
from marts.marts_daily_revenue
order by 1`,
	},
	{
		ID: "q3_join_zone_lookup_top20",
		SQL: `
select
  z.borough,
  z.zone,
  count(*) as trips,
  avg(t.total_amount) as avg_total
from clean.clean_yellow_trips t
join raw.taxi_zone_lookup z
  on z.locationid = t.pu_location_id
group by 1, 2
order by trips desc
limit 20`,
	},
	{
		ID: "q4_payment_type_stats",
		SQL: `
select
  payment_type,
  count(*) as trips,
  avg(tip_amount) as avg_tip
from clean.clean_yellow_trips
group by 1
order by trips desc`,
	},
	{
		ID: "q5_hourly_peak",
		SQL: `
select
  extract(hour from pickup_ts)::int as hr,
  count(*) as trips
from clean.clean_yellow_trips
group by 1
order by trips desc`,
	},
	{
		ID: "q5_mart_hourly_peak",
		SQL: `
select
  hr,
  sum(trips) as trips
from marts.marts_hourly_peak
group by 1
order by trips desc`,
	},
}
