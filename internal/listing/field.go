package listing

import (
	"github.com/graphql-go/graphql"

	"gql-listkit/internal/qerr"
)

// EnvelopeType builds the GraphQL object wrapping a page of node records:
// a non-null total count and a non-null list of non-null nodes.
func EnvelopeType(name string, node *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"count": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Int),
				Description: "Total number of matching records, independent of the requested page.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if envelope, ok := p.Source.(*Envelope); ok {
						return envelope.Count, nil
					}
					return nil, nil
				},
			},
			"results": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(node))),
				Description: "The requested page of records.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if envelope, ok := p.Source.(*Envelope); ok {
						return envelope.Results, nil
					}
					return nil, nil
				},
			},
		},
	})
}

// Field assembles a complete list field: the union of filter and pagination
// arguments over the envelope type, resolved by the resolver. Two argument
// sources claiming the same name is a configuration error, detected here
// rather than surfacing as one argument silently shadowing the other.
func Field(resolver *Resolver, envelope *graphql.Object, description string) (*graphql.Field, error) {
	args := graphql.FieldConfigArgument{}
	if resolver.filter != nil {
		for name, cfg := range resolver.filter.Arguments() {
			args[name] = cfg
		}
	}
	for name, cfg := range resolver.strategy.Arguments() {
		if _, taken := args[name]; taken {
			return nil, qerr.Configf("entity %s: pagination argument %q collides with a filter argument", resolver.entity.Name, name)
		}
		args[name] = cfg
	}

	return &graphql.Field{
		Type:        graphql.NewNonNull(envelope),
		Args:        args,
		Description: description,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			return resolver.Resolve(p.Context, p.Args)
		},
	}, nil
}
