package openapi

import "maps"

func errorResponse(description string) *Response {
	return &Response{
		Description: description,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("Error")},
		},
	}
}

// NewComponents creates Components with the shared error schemas and
// responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
			"ValidationError": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Example: "validation failed"},
					"fields": {Type: "object", Description: "Message per rejected field"},
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":   errorResponse("Invalid request"),
			"Unauthorized": errorResponse("No authenticated session"),
			"NotFound":     errorResponse("Resource not found"),
			"Unprocessable": {
				Description: "Validation failed",
				Content: map[string]*MediaType{
					"application/json": {Schema: SchemaRef("ValidationError")},
				},
			},
		},
	}
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}
