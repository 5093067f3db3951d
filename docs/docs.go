// Package docs carries the OpenAPI description of the public HTTP API.
package docs

import _ "embed"

// FileName is the document's path relative to the project root.
const FileName = "docs/openapi.yml"

//go:embed openapi.yml
var OpenAPI []byte
