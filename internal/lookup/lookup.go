// Package lookup enumerates the comparison operators usable in declarative
// filter specs. Unknown operators are rejected when a spec is compiled, not
// when a query runs.
package lookup

// Lookup is a named comparison operator applied to an entity field.
type Lookup string

const (
	IsNull      Lookup = "isnull"
	Exact       Lookup = "exact"
	IExact      Lookup = "iexact"
	Contains    Lookup = "contains"
	IContains   Lookup = "icontains"
	StartsWith  Lookup = "startswith"
	IStartsWith Lookup = "istartswith"
	EndsWith    Lookup = "endswith"
	IEndsWith   Lookup = "iendswith"
	In          Lookup = "in"
	GT          Lookup = "gt"
	GTE         Lookup = "gte"
	LT          Lookup = "lt"
	LTE         Lookup = "lte"
	Range       Lookup = "range"
	Year        Lookup = "year"
	Month       Lookup = "month"
	Day         Lookup = "day"
	WeekDay     Lookup = "week_day"
	Hour        Lookup = "hour"
	Minute      Lookup = "minute"
	Second      Lookup = "second"
)

// All lists every supported lookup in declaration order.
var All = []Lookup{
	IsNull, Exact, IExact, Contains, IContains,
	StartsWith, IStartsWith, EndsWith, IEndsWith,
	In, GT, GTE, LT, LTE, Range,
	Year, Month, Day, WeekDay, Hour, Minute, Second,
}

// Named subsets for shorthand specs, mirroring the groupings commonly used
// when declaring filterable fields by type.
var (
	Basic    = []Lookup{Exact, IContains}
	Common   = []Lookup{IsNull, Exact, IExact, Contains, IContains, StartsWith, IStartsWith, EndsWith, IEndsWith, In}
	Number   = []Lookup{In, GT, GTE, LT, LTE, Range}
	Date     = []Lookup{In, GT, GTE, LT, LTE, Range, Year, Month, Day, WeekDay}
	DateTime = []Lookup{In, GT, GTE, LT, LTE, Range, Year, Month, Day, WeekDay, Hour, Minute, Second}
	Time     = []Lookup{In, GT, GTE, LT, LTE, Range, Hour, Minute, Second}
)

var supported = func() map[Lookup]struct{} {
	set := make(map[Lookup]struct{}, len(All))
	for _, l := range All {
		set[l] = struct{}{}
	}
	return set
}()

// Valid reports whether l is a supported lookup operator.
func Valid(l Lookup) bool {
	_, ok := supported[l]
	return ok
}

// ListValued reports whether the lookup takes a list argument.
func ListValued(l Lookup) bool {
	return l == In || l == Range
}

// BoolValued reports whether the lookup takes a boolean argument.
func BoolValued(l Lookup) bool {
	return l == IsNull
}

// IntValued reports whether the lookup takes an integer argument regardless
// of the field's own scalar type (date/time part extractions).
func IntValued(l Lookup) bool {
	switch l {
	case Year, Month, Day, WeekDay, Hour, Minute, Second:
		return true
	}
	return false
}
