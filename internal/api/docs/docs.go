// Package docs embute a especificação Swagger servida em /swagger/doc.json.
package docs

import (
	_ "embed"
	"net/http"
)

//go:embed swagger.json
var SwaggerJSON []byte

// Handler serve o swagger.json.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(SwaggerJSON)
}
