// Package api carries the WolfFlix HTTP API documentation assets.
package api

import _ "embed"

// OpenAPISpec is the OpenAPI 3.0 document served at /api/docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

// DocsPage is the Swagger UI page served at /api/docs. It loads the
// document above from the same origin.
//
//go:embed docs.html
var DocsPage []byte
