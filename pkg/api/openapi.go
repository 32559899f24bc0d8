package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"

	"github.com/ccoapp/cco-api/pkg/observability"
)

//go:embed openapi.yaml
var openapiSpec []byte

// securitySchemeName identifies the bearer scheme injected into the
// OpenAPI document.
const securitySchemeName = "BearerAuth"

// httpMethods are the OpenAPI operation keys; other keys under a path
// item (parameters, summary) are not operations.
var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// OpenAPIHandlers serves the API documentation. The embedded document is
// transformed once at construction: a bearer security scheme is added to
// the components and declared on every operation. This is a static
// document transform, not request-path logic.
type OpenAPIHandlers struct {
	log     *observability.Logger
	yamlDoc []byte
	jsonDoc []byte
}

// NewOpenAPIHandlers parses the embedded spec and applies the security
// transform.
func NewOpenAPIHandlers(log *observability.Logger) (*OpenAPIHandlers, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(openapiSpec, &doc); err != nil {
		return nil, fmt.Errorf("parsing openapi spec: %w", err)
	}

	addSecurityScheme(doc)

	yamlDoc, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering openapi yaml: %w", err)
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("rendering openapi json: %w", err)
	}

	return &OpenAPIHandlers{
		log:     log,
		yamlDoc: yamlDoc,
		jsonDoc: jsonDoc,
	}, nil
}

// addSecurityScheme injects the bearer security scheme into the
// document components and declares it on every operation.
func addSecurityScheme(doc map[string]interface{}) {
	components, ok := doc["components"].(map[string]interface{})
	if !ok {
		components = make(map[string]interface{})
		doc["components"] = components
	}
	components["securitySchemes"] = map[string]interface{}{
		securitySchemeName: map[string]interface{}{
			"type":         "http",
			"scheme":       "bearer",
			"bearerFormat": "JWT",
		},
	}

	paths, ok := doc["paths"].(map[string]interface{})
	if !ok {
		return
	}
	for _, pathItem := range paths {
		methods, ok := pathItem.(map[string]interface{})
		if !ok {
			continue
		}
		for method, op := range methods {
			if !httpMethods[method] {
				continue
			}
			operation, ok := op.(map[string]interface{})
			if !ok {
				continue
			}
			operation["security"] = []interface{}{
				map[string]interface{}{securitySchemeName: []interface{}{}},
			}
		}
	}
}

// RegisterRoutes registers the documentation routes
func (h *OpenAPIHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/openapi.json", h.serveJSON).Methods("GET")
	router.HandleFunc("/openapi.yaml", h.serveYAML).Methods("GET")
	router.HandleFunc("/docs", h.serveDocs).Methods("GET")
}

func (h *OpenAPIHandlers) serveJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(h.jsonDoc)
}

func (h *OpenAPIHandlers) serveYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(h.yamlDoc)
}

func (h *OpenAPIHandlers) serveDocs(w http.ResponseWriter, r *http.Request) {
	tmpl := template.Must(template.New("docs").Parse(docsTemplate))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, nil); err != nil {
		h.log.WithError(err).Error("rendering docs page")
	}
}

const docsTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>CCO API - Swagger UI</title>
  <link rel="stylesheet" type="text/css" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui.css" />
  <style>
    html { box-sizing: border-box; overflow-y: scroll; }
    *, *:before, *:after { box-sizing: inherit; }
    body { margin: 0; padding: 0; }
  </style>
</head>
<body>
<div id="swagger-ui"></div>

<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui-bundle.js" charset="UTF-8"></script>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.10.5/swagger-ui-standalone-preset.js" charset="UTF-8"></script>
<script>
window.onload = function() {
  window.ui = SwaggerUIBundle({
    url: "/openapi.json",
    dom_id: '#swagger-ui',
    deepLinking: true,
    presets: [
      SwaggerUIBundle.presets.apis,
      SwaggerUIStandalonePreset
    ],
    layout: "StandaloneLayout",
    requestInterceptor: function(request) {
      const token = localStorage.getItem('cco_api_token');
      if (token) {
        request.headers['Authorization'] = 'Bearer ' + token;
      }
      return request;
    }
  });
};
</script>
</body>
</html>`
