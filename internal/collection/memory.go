package collection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gql-listkit/internal/lookup"
	"gql-listkit/internal/model"
	"gql-listkit/internal/qerr"
)

// MemoryProvider serves collections from in-process record slices. It backs
// tests and examples; relation-path predicates and ordering are not supported
// because records carry no relation data.
type MemoryProvider struct {
	records map[string][]Record
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{records: make(map[string][]Record)}
}

// Seed replaces the records stored for an entity.
func (p *MemoryProvider) Seed(entityName string, records []Record) {
	p.records[entityName] = records
}

// Base returns a collection over the seeded records.
func (p *MemoryProvider) Base(e *model.Entity) Collection {
	return &memCollection{
		entity:  e,
		records: p.records[e.Name],
		offset:  -1,
		limit:   -1,
	}
}

type memCollection struct {
	entity  *model.Entity
	records []Record
	order   []OrderTerm
	offset  int
	limit   int
}

func (c *memCollection) clone() *memCollection {
	dup := *c
	dup.order = append([]OrderTerm(nil), c.order...)
	return &dup
}

func (c *memCollection) Filter(preds []Predicate) (Collection, error) {
	dup := c.clone()
	kept := make([]Record, 0, len(c.records))
	for _, record := range c.records {
		match := true
		for _, pred := range preds {
			if pred.Path.Relation != nil {
				return nil, qerr.Validationf(pred.ArgName, pred.Value, "memory collections do not support relation paths")
			}
			ok, err := matchRecord(record, pred)
			if err != nil {
				return nil, err
			}
			if !ok {
				match = false
				break
			}
		}
		if match {
			kept = append(kept, record)
		}
	}
	dup.records = kept
	return dup, nil
}

func (c *memCollection) Order(terms []OrderTerm) (Collection, error) {
	for _, term := range terms {
		if term.Path.Relation != nil {
			return nil, qerr.Validationf("ordering", term.Path.Path, "memory collections do not support relation paths")
		}
	}
	dup := c.clone()
	dup.order = append([]OrderTerm(nil), terms...)
	return dup, nil
}

func (c *memCollection) Slice(offset, limit int) Collection {
	dup := c.clone()
	dup.offset = offset
	dup.limit = limit
	return dup
}

func (c *memCollection) Count(_ context.Context) (int, error) {
	return len(c.records), nil
}

func (c *memCollection) Fetch(_ context.Context) ([]Record, error) {
	records := append([]Record(nil), c.records...)

	if len(c.order) > 0 {
		sort.SliceStable(records, func(i, j int) bool {
			for _, term := range c.order {
				key := term.Path.Field.ColumnName()
				cmp := compareValues(records[i][key], records[j][key])
				if cmp == 0 {
					continue
				}
				if term.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if c.limit >= 0 {
		start := c.offset
		if start < 0 {
			start = 0
		}
		if start > len(records) {
			start = len(records)
		}
		end := start + c.limit
		if end > len(records) {
			end = len(records)
		}
		records = records[start:end]
	}
	return records, nil
}

func matchRecord(record Record, pred Predicate) (bool, error) {
	actual := record[pred.Path.Field.ColumnName()]
	switch pred.Lookup {
	case lookup.Exact:
		if (actual == nil) != (pred.Value == nil) {
			return false, nil
		}
		return compareValues(actual, pred.Value) == 0, nil
	case lookup.IExact:
		return strings.EqualFold(stringValue(actual), stringValue(pred.Value)), nil
	case lookup.Contains:
		return strings.Contains(stringValue(actual), stringValue(pred.Value)), nil
	case lookup.IContains:
		return strings.Contains(strings.ToLower(stringValue(actual)), strings.ToLower(stringValue(pred.Value))), nil
	case lookup.StartsWith:
		return strings.HasPrefix(stringValue(actual), stringValue(pred.Value)), nil
	case lookup.IStartsWith:
		return strings.HasPrefix(strings.ToLower(stringValue(actual)), strings.ToLower(stringValue(pred.Value))), nil
	case lookup.EndsWith:
		return strings.HasSuffix(stringValue(actual), stringValue(pred.Value)), nil
	case lookup.IEndsWith:
		return strings.HasSuffix(strings.ToLower(stringValue(actual)), strings.ToLower(stringValue(pred.Value))), nil
	case lookup.In:
		items, err := listValue(pred)
		if err != nil {
			return false, err
		}
		for _, item := range items {
			if compareValues(actual, item) == 0 {
				return true, nil
			}
		}
		return false, nil
	case lookup.GT:
		return compareValues(actual, pred.Value) > 0, nil
	case lookup.GTE:
		return compareValues(actual, pred.Value) >= 0, nil
	case lookup.LT:
		return compareValues(actual, pred.Value) < 0, nil
	case lookup.LTE:
		return compareValues(actual, pred.Value) <= 0, nil
	case lookup.Range:
		items, err := listValue(pred)
		if err != nil {
			return false, err
		}
		if len(items) != 2 {
			return false, qerr.Validationf(pred.ArgName, pred.Value, "range requires exactly two values")
		}
		return compareValues(actual, items[0]) >= 0 && compareValues(actual, items[1]) <= 0, nil
	case lookup.IsNull:
		isNull, ok := pred.Value.(bool)
		if !ok {
			return false, qerr.Validationf(pred.ArgName, pred.Value, "isnull requires a boolean")
		}
		return (actual == nil) == isNull, nil
	case lookup.Year, lookup.Month, lookup.Day, lookup.WeekDay, lookup.Hour, lookup.Minute, lookup.Second:
		ts, ok := actual.(time.Time)
		if !ok {
			return false, nil
		}
		return datePart(ts, pred.Lookup) == intValue(pred.Value), nil
	default:
		return false, qerr.Validationf(pred.ArgName, pred.Value, "unknown lookup operator %q", pred.Lookup)
	}
}

func datePart(ts time.Time, l lookup.Lookup) int {
	switch l {
	case lookup.Year:
		return ts.Year()
	case lookup.Month:
		return int(ts.Month())
	case lookup.Day:
		return ts.Day()
	case lookup.WeekDay:
		// MySQL DAYOFWEEK: Sunday=1 .. Saturday=7
		return int(ts.Weekday()) + 1
	case lookup.Hour:
		return ts.Hour()
	case lookup.Minute:
		return ts.Minute()
	case lookup.Second:
		return ts.Second()
	}
	return -1
}

// compareValues orders two record values of matching shape. nil sorts first.
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if at, aok := a.(time.Time); aok {
		if bt, bok := b.(time.Time); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	af, aok := floatValue(a)
	bf, bok := floatValue(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	return strings.Compare(stringValue(a), stringValue(b))
}

func floatValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func intValue(v interface{}) int {
	if f, ok := floatValue(v); ok {
		return int(f)
	}
	return -1
}

func stringValue(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
