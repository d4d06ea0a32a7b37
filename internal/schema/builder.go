// Package schema assembles the GraphQL schema from registered entities:
// object types for records, paginated list fields, and single-record
// lookups by primary key.
package schema

import (
	"github.com/graphql-go/graphql"

	"gql-listkit/internal/collection"
	"gql-listkit/internal/config"
	"gql-listkit/internal/countcache"
	"gql-listkit/internal/filterset"
	"gql-listkit/internal/listing"
	"gql-listkit/internal/lookup"
	"gql-listkit/internal/model"
	"gql-listkit/internal/naming"
	"gql-listkit/internal/observability"
	"gql-listkit/internal/pagination"
	"gql-listkit/internal/qerr"
)

// Strategy selector values for ListConfig.
const (
	StrategyLimitOffset = "limit_offset"
	StrategyPage        = "page"
	StrategyCursor      = "cursor"
)

// ListConfig declares one paginated list field.
type ListConfig struct {
	// FieldName overrides the default pluralized query field name.
	FieldName string
	// Filter declares the exposed filter arguments. Nil or empty yields an
	// unfiltered list.
	Filter filterset.Spec
	// CustomFilter supplies a fully custom Filterer instead of compiling
	// Filter. Setting both is a configuration error.
	CustomFilter filterset.Filterer
	// Strategy selects the pagination strategy; empty means limit/offset.
	Strategy string
	// Pagination tunes the selected strategy.
	Pagination pagination.Config
	// Hook customizes the base collection before client filters apply.
	Hook collection.Hook
	// Description is the field's GraphQL description.
	Description string
}

// Options carries the Builder's shared collaborators.
type Options struct {
	Pagination *config.PaginationSettings
	Cache      *countcache.Cache
	Metrics    *observability.ListMetrics
}

// Builder accumulates query fields and produces the executable schema.
type Builder struct {
	registry *model.Registry
	provider collection.Provider
	opts     Options
	queries  graphql.Fields
}

// NewBuilder creates a schema builder over a registry and a collection
// provider.
func NewBuilder(reg *model.Registry, provider collection.Provider, opts Options) *Builder {
	return &Builder{
		registry: reg,
		provider: provider,
		opts:     opts,
		queries:  graphql.Fields{},
	}
}

// ObjectType returns the GraphQL object type for an entity, building and
// binding it on first use so every field referencing the entity shares one
// type instance.
func (b *Builder) ObjectType(entity *model.Entity) (*graphql.Object, error) {
	if existing := b.registry.Type(entity.Name); existing != nil {
		return existing, nil
	}

	fields := graphql.Fields{}
	for i := range entity.Fields {
		field := &entity.Fields[i]
		column := field.ColumnName()
		var output graphql.Output = field.Kind.GraphQLType()
		if field.PrimaryKey {
			output = graphql.NewNonNull(output)
		}
		fields[naming.ToFieldName(field.Name)] = &graphql.Field{
			Type: output,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if record, ok := p.Source.(collection.Record); ok {
					return record[column], nil
				}
				return nil, nil
			},
		}
	}

	obj := graphql.NewObject(graphql.ObjectConfig{
		Name:   naming.ToTypeName(entity.Name),
		Fields: fields,
	})
	if err := b.registry.BindType(entity.Name, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// AddList declares a paginated list field for the entity.
func (b *Builder) AddList(entity *model.Entity, cfg ListConfig) error {
	if err := b.registry.Register(entity); err != nil {
		return err
	}
	node, err := b.ObjectType(entity)
	if err != nil {
		return err
	}

	filter, err := b.buildFilter(entity, cfg)
	if err != nil {
		return err
	}
	strategy, err := b.buildStrategy(entity, cfg)
	if err != nil {
		return err
	}

	name := cfg.FieldName
	if name == "" {
		name = naming.ToFieldName(naming.Pluralize(entity.Name))
	}

	// Scope cache entries to the declaring field: two fields over one entity
	// may hook their base collections differently.
	resolver, err := listing.NewResolver(entity, b.provider, filter, strategy, listing.Options{
		Hook:       cfg.Hook,
		Cache:      b.opts.Cache,
		CacheScope: entity.Name + "/" + name,
		Metrics:    b.opts.Metrics,
	})
	if err != nil {
		return err
	}

	envelope := listing.EnvelopeType(naming.ToTypeName(entity.Name)+"List", node)
	field, err := listing.Field(resolver, envelope, cfg.Description)
	if err != nil {
		return err
	}
	return b.addQuery(name, field)
}

// AddGet declares a single-record lookup by primary key for the entity.
func (b *Builder) AddGet(entity *model.Entity) error {
	if err := b.registry.Register(entity); err != nil {
		return err
	}
	node, err := b.ObjectType(entity)
	if err != nil {
		return err
	}
	pk := entity.PrimaryKey()
	if pk == nil {
		return qerr.Configf("entity %s declares no primary key for a get field", entity.Name)
	}

	argName := naming.ToFieldName(pk.Name)
	path, err := entity.ResolvePath(pk.Name, b.registry)
	if err != nil {
		return err
	}
	provider := b.provider

	field := &graphql.Field{
		Type: node,
		Args: graphql.FieldConfigArgument{
			argName: &graphql.ArgumentConfig{Type: graphql.NewNonNull(pk.Kind.GraphQLInputType())},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			col, err := provider.Base(entity).Filter([]collection.Predicate{{
				ArgName: argName,
				Path:    path,
				Lookup:  lookup.Exact,
				Value:   p.Args[argName],
			}})
			if err != nil {
				return nil, err
			}
			records, err := col.Slice(0, 1).Fetch(p.Context)
			if err != nil {
				return nil, err
			}
			if len(records) == 0 {
				return nil, nil
			}
			return records[0], nil
		},
	}
	return b.addQuery(naming.ToFieldName(entity.Name), field)
}

// Schema assembles the executable schema from the declared query fields.
func (b *Builder) Schema() (graphql.Schema, error) {
	if len(b.queries) == 0 {
		return graphql.Schema{}, qerr.Configf("schema declares no query fields")
	}
	query := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: b.queries,
	})
	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

func (b *Builder) buildFilter(entity *model.Entity, cfg ListConfig) (filterset.Filterer, error) {
	if cfg.CustomFilter != nil {
		if len(cfg.Filter) > 0 {
			return nil, qerr.Configf("entity %s: list field declares both a filter spec and a custom filter", entity.Name)
		}
		if cfg.CustomFilter.Entity() != entity {
			return nil, qerr.Configf("entity %s: custom filter is bound to entity %s", entity.Name, cfg.CustomFilter.Entity().Name)
		}
		return cfg.CustomFilter, nil
	}
	if len(cfg.Filter) == 0 {
		return nil, nil
	}
	return filterset.New(entity, cfg.Filter, b.registry)
}

func (b *Builder) buildStrategy(entity *model.Entity, cfg ListConfig) (pagination.Strategy, error) {
	switch cfg.Strategy {
	case "", StrategyLimitOffset:
		return pagination.NewLimitOffset(entity, b.registry, cfg.Pagination, b.opts.Pagination)
	case StrategyPage:
		return pagination.NewPageNumber(entity, b.registry, cfg.Pagination, b.opts.Pagination)
	case StrategyCursor:
		return pagination.NewCursor(cfg.Pagination), nil
	default:
		return nil, qerr.Configf("entity %s: unknown pagination strategy %q", entity.Name, cfg.Strategy)
	}
}

func (b *Builder) addQuery(name string, field *graphql.Field) error {
	if _, taken := b.queries[name]; taken {
		return qerr.Configf("query field %q declared twice", name)
	}
	b.queries[name] = field
	return nil
}
