// Package schema provides a fluent API for building the schemas used for
// function parameters and structured output.
//
// Schemas are built programmatically and validated when rendered. Map
// returns the generic form accepted by client.GenerateContentConfig and
// transform.FunctionDeclaration; the client normalizes it for the backend
// before sending. Object properties keep the order their fields were added
// in, which is recorded as "propertyOrdering" so generated JSON follows it.
//
// # Basic Usage
//
//	params := schema.Object().
//		Field("location", schema.String().Desc("City name").Required()).
//		Field("unit", schema.String().Enum("celsius", "fahrenheit")).
//		Field("days", schema.Int().Min(1).Max(14).Default(7)).
//		MustMap()
//
// # Function Declarations
//
//	decl := &transform.FunctionDeclaration{
//		Name:        "get_forecast",
//		Description: "Get weather forecast",
//		Parameters: schema.Object().
//			Field("location", schema.String().Required()).
//			Field("days", schema.Int().Min(1).Max(14)).
//			MustMap(),
//	}
//
// # Response Schemas
//
//	cfg := &client.GenerateContentConfig{
//		ResponseMIMEType: "application/json",
//		ResponseSchema: schema.Object().
//			Field("title", schema.String().Required()).
//			Field("year", schema.Int().Min(1000).Max(2100)).
//			MustMap(),
//	}
//
// # Nullable Values and Unions
//
//	schema.Object().
//		Field("nickname", schema.String().Nullable()).
//		Field("id", schema.AnyOf(schema.String(), schema.Int()))
//
// # Validation
//
// Use Map() instead of MustMap() to handle errors:
//
//	params, err := schema.Object().
//		Field("count", schema.Int().Min(10).Max(5)). // Error: min > max
//		Map()
//	if err != nil {
//		log.Fatal(err) // schema: field "count": schema: minimum exceeds maximum
//	}
package schema
