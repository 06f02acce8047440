package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/madspild/internal/core/domain"
	"github.com/samirrijal/madspild/internal/core/filter"
)

// buildSchema creates the read-only GraphQL schema over sessions and quick filters.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	addressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Address",
		Fields: graphql.Fields{
			"street":  &graphql.Field{Type: graphql.String},
			"zip":     &graphql.Field{Type: graphql.String},
			"city":    &graphql.Field{Type: graphql.String},
			"country": &graphql.Field{Type: graphql.String},
		},
	})

	storeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Store",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"brand":       &graphql.Field{Type: graphql.String},
			"type":        &graphql.Field{Type: graphql.String},
			"address":     &graphql.Field{Type: addressType},
			"coordinates": &graphql.Field{Type: geoPointType},
			"distance_km": &graphql.Field{
				Type: graphql.Float,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if s, ok := p.Source.(domain.Store); ok && s.DistanceKm != nil {
						return *s.DistanceKm, nil
					}
					return nil, nil
				},
			},
		},
	})

	offerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Offer",
		Fields: graphql.Fields{
			"product_description": &graphql.Field{Type: graphql.String},
			"category_en":         &graphql.Field{Type: graphql.String},
			"category_da":         &graphql.Field{Type: graphql.String},
			"image_url":           &graphql.Field{Type: graphql.String},
			"ean":                 &graphql.Field{Type: graphql.String},
			"currency":            &graphql.Field{Type: graphql.String},
			"new_price":           &graphql.Field{Type: graphql.Float},
			"original_price":      &graphql.Field{Type: graphql.Float},
			"discount":            &graphql.Field{Type: graphql.Float},
			"percent_discount":    &graphql.Field{Type: graphql.Float},
			"stock":               &graphql.Field{Type: graphql.Float},
			"stock_unit":          &graphql.Field{Type: graphql.String},
			"end_time": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if o, ok := p.Source.(domain.Offer); ok && !o.EndTime.IsZero() {
						return o.EndTime.Format(time.RFC3339), nil
					}
					return nil, nil
				},
			},
		},
	})

	storeOffersType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StoreOffers",
		Fields: graphql.Fields{
			"store":  &graphql.Field{Type: storeType},
			"offers": &graphql.Field{Type: graphql.NewList(offerType)},
		},
	})

	requestType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchRequest",
		Fields: graphql.Fields{
			"center":       &graphql.Field{Type: geoPointType},
			"radius_km":    &graphql.Field{Type: graphql.Float},
			"source":       &graphql.Field{Type: graphql.String},
			"capped":       &graphql.Field{Type: graphql.Boolean},
			"requested_km": &graphql.Field{Type: graphql.Float},
			"label":        &graphql.Field{Type: graphql.String},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"generation":   &graphql.Field{Type: graphql.Int},
			"state":        &graphql.Field{Type: graphql.String},
			"request":      &graphql.Field{Type: requestType},
			"error":        &graphql.Field{Type: graphql.String},
			"terms":        &graphql.Field{Type: graphql.NewList(graphql.String)},
			"filtered":     &graphql.Field{Type: graphql.Boolean},
			"empty_reason": &graphql.Field{Type: graphql.String},
			"stores":       &graphql.Field{Type: graphql.NewList(storeOffersType)},
		},
	})

	quickFilterType := graphql.NewObject(graphql.ObjectConfig{
		Name: "QuickFilter",
		Fields: graphql.Fields{
			"en":       &graphql.Field{Type: graphql.String},
			"da":       &graphql.Field{Type: graphql.String},
			"featured": &graphql.Field{Type: graphql.Boolean},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Current state of a search session",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, err := deps.Sessions.Get(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					snap := s.Snapshot()

					// Visible stores carry only their matched offers.
					stores := make([]domain.StoreOfferBundle, 0, len(snap.View.Stores))
					for _, b := range snap.View.Stores {
						stores = append(stores, domain.StoreOfferBundle{Store: b.Store, Offers: snap.View.MatchedOffers(b.Store.ID)})
					}

					result := map[string]interface{}{
						"id":           snap.SessionID,
						"generation":   int(snap.Generation),
						"state":        string(snap.State),
						"error":        snap.Error,
						"terms":        snap.View.Terms,
						"filtered":     snap.View.Filtered,
						"empty_reason": string(snap.View.EmptyReason),
						"stores":       stores,
					}
					if snap.Request != nil {
						result["request"] = map[string]interface{}{
							"center":       snap.Request.Center,
							"radius_km":    snap.Request.RadiusKm,
							"source":       string(snap.Request.Source),
							"capped":       snap.Request.Capped,
							"requested_km": snap.Request.RequestedKm,
							"label":        snap.Request.Label,
						}
					}
					return result, nil
				},
			},
			"quickFilters": &graphql.Field{
				Type:        graphql.NewList(quickFilterType),
				Description: "Common products with their English and Danish names",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return filter.QuickFilters(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
