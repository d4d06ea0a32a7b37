// Package pagination implements the interchangeable strategies that order
// and slice entity collections: limit/offset, page-number, and a declared
// but unimplemented cursor placeholder. Strategies are immutable after
// construction and safe to share across concurrent requests.
package pagination

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/mitchellh/mapstructure"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/config"
	"gql-listkit/internal/model"
	"gql-listkit/internal/ordering"
	"gql-listkit/internal/qerr"
)

// Default external argument names; every one is renameable per field through
// Config.
const (
	DefaultLimitArg    = "limit"
	DefaultOffsetArg   = "offset"
	DefaultPageArg     = "page"
	DefaultOrderingArg = "ordering"
	DefaultCursorArg   = "cursor"
)

// Strategy orders and slices a filtered collection. Count always reports the
// total of the unsliced collection, so the reported total never depends on
// the requested window.
type Strategy interface {
	Name() string
	// Arguments declares the strategy's GraphQL argument schema.
	Arguments() map[string]*graphql.ArgumentConfig
	// Apply orders the collection, then slices it per the client arguments.
	Apply(ctx context.Context, col collection.Collection, args map[string]interface{}) (collection.Collection, error)
	// Count computes the total over the unsliced, filtered collection.
	Count(ctx context.Context, col collection.Collection) (int, error)
}

// Config declares per-field pagination parameters. Zero values fall back to
// the process-wide settings. Argument names resolve once at construction;
// nothing re-derives them per request.
type Config struct {
	// Limit/offset strategy.
	DefaultLimit int
	MaxLimit     int
	LimitArg     string
	OffsetArg    string

	// Page-number strategy. A non-empty PageSizeArg enables dynamic page
	// sizing through that argument.
	PageSize    int
	MaxPageSize int
	PageArg     string
	PageSizeArg string

	// DefaultOrdering accepts a string ("name,-created"), a []string, or an
	// ordering.Spec; all forms normalize identically.
	DefaultOrdering interface{}
	OrderingArg     string

	// Cursor strategy.
	CursorArg string
}

// orderingResolver applies the default or client-supplied ordering. The
// client expression fully replaces the default; the two never merge.
type orderingResolver struct {
	entity      *model.Entity
	registry    *model.Registry
	argName     string
	defaultSpec ordering.Spec
}

func newOrderingResolver(entity *model.Entity, reg *model.Registry, cfg Config) (*orderingResolver, error) {
	spec, err := ordering.Normalize(cfg.DefaultOrdering)
	if err != nil {
		return nil, err
	}
	// Default ordering fields are validated at schema build, not first use.
	if _, err := spec.Resolve(entity, reg); err != nil {
		return nil, qerr.Configf("default ordering for entity %s: %v", entity.Name, err)
	}
	argName := cfg.OrderingArg
	if argName == "" {
		argName = DefaultOrderingArg
	}
	return &orderingResolver{
		entity:      entity,
		registry:    reg,
		argName:     argName,
		defaultSpec: spec,
	}, nil
}

func (r *orderingResolver) argument() (string, *graphql.ArgumentConfig) {
	return r.argName, &graphql.ArgumentConfig{
		Type: graphql.String,
		Description: "Comma separated list of field names defining the result order; " +
			"prefix a field with '-' for descending order.",
	}
}

func (r *orderingResolver) apply(col collection.Collection, args map[string]interface{}) (collection.Collection, error) {
	spec := r.defaultSpec
	if raw, ok := args[r.argName]; ok && raw != nil {
		expr, ok := raw.(string)
		if !ok {
			return nil, qerr.Validationf(r.argName, raw, "ordering must be a string")
		}
		parsed, err := ordering.Parse(expr)
		if err != nil {
			return nil, err
		}
		// An empty expression counts as absent; the default still applies.
		if len(parsed) > 0 {
			spec = parsed
		}
	}
	if len(spec) == 0 {
		return col, nil
	}
	terms, err := spec.Resolve(r.entity, r.registry)
	if err != nil {
		return nil, err
	}
	return col.Order(terms)
}

// decodeArgs remaps the externally-named arguments onto canonical keys and
// decodes them into a typed struct. Weak typing absorbs the int/float64
// variance of GraphQL argument maps.
func decodeArgs(args map[string]interface{}, names map[string]string, out interface{}) error {
	canonical := make(map[string]interface{}, len(names))
	for key, external := range names {
		if value, ok := args[external]; ok && value != nil {
			canonical[key] = value
		}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(canonical)
}

func fallbackInt(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func settingsOrDefault(s *config.PaginationSettings) config.PaginationSettings {
	if s == nil {
		return config.PaginationSettings{
			DefaultPageSize: config.DefaultPageSize,
			MaxPageSize:     config.DefaultMaxPageSize,
		}
	}
	return *s
}
