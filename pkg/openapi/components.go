package openapi

import "maps"

// BearerAuth is the component name of the JWT bearer scheme.
const BearerAuth = "bearerAuth"

func errorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {
				Schema: &Schema{
					Type:     "object",
					Required: []string{"error"},
					Properties: map[string]*Schema{
						"error": {Type: "string", Description: "Error message"},
					},
				},
			},
		},
	}
}

// NewComponents returns the shared page request schema and the error
// responses every handler may produce.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "1-indexed page number", Example: 1},
					"page_size": {Type: "integer", Description: "Rows per page, clamped to the configured maximum", Example: 25},
					"search":    {Type: "string", Description: "Case-insensitive substring filter"},
					"sort":      {Description: "Sort expression such as \"-CreatedAt\" or a list of {field, descending}"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":   errorResponse("Invalid request"),
			"Unauthorized": errorResponse("Missing or invalid bearer token"),
			"Forbidden":    errorResponse("Caller lacks the required role"),
			"NotFound":     errorResponse("Resource not found"),
			"Conflict":     errorResponse("Conflicting state"),
			"Unavailable":  errorResponse("No model is loaded"),
		},
	}
}

func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}

// AddBearerAuth registers the JWT bearer scheme under BearerAuth.
func (c *Components) AddBearerAuth(description string) {
	if c.SecuritySchemes == nil {
		c.SecuritySchemes = make(map[string]*SecurityScheme)
	}
	c.SecuritySchemes[BearerAuth] = &SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
		Description:  description,
	}
}

// Bearer is the security requirement for operations that need a token.
func Bearer() []SecurityRequirement {
	return []SecurityRequirement{{BearerAuth: {}}}
}

func SchemaRef(name string) *Schema {
	return &Schema{Ref: "#/components/schemas/" + name}
}

func ResponseRef(name string) *Response {
	return &Response{Ref: "#/components/responses/" + name}
}

// RequestBodyJSON is a JSON body holding the named component schema.
func RequestBodyJSON(schema string, required bool) *RequestBody {
	return &RequestBody{
		Required: required,
		Content:  jsonContent(SchemaRef(schema)),
	}
}

// ResponseJSON is a JSON response holding the named component schema.
func ResponseJSON(description, schema string) *Response {
	return &Response{Description: description, Content: jsonContent(SchemaRef(schema))}
}

// ResponseJSONArray is a JSON response holding a list of the named schema.
func ResponseJSONArray(description, schema string) *Response {
	return &Response{
		Description: description,
		Content:     jsonContent(&Schema{Type: "array", Items: SchemaRef(schema)}),
	}
}

func jsonContent(s *Schema) map[string]*MediaType {
	return map[string]*MediaType{"application/json": {Schema: s}}
}

// PathParam is a required string path parameter. An empty format leaves
// the schema unconstrained.
func PathParam(name, description, format string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "path",
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: "string", Format: format},
	}
}

// QueryParam is an optional query parameter described by schema.
func QueryParam(name, description string, schema *Schema) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "query",
		Description: description,
		Schema:      schema,
	}
}
