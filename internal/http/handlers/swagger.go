package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"net/http"

	"github.com/geocoder89/todohub/docs"
	"github.com/gin-gonic/gin"
)

const specPath = "/docs/openapi.yaml"

// swagger-ui keeps the bearer token across reloads so a reader can log in
// once through /api/auth/login and try every list and item route.
var docsPageTmpl = template.Must(template.New("docs").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>{{.Title}}</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: {{.SpecURL}},
        dom_id: "#swagger-ui",
        persistAuthorization: true,
        tryItOutEnabled: true,
        displayRequestDuration: true,
        presets: [SwaggerUIBundle.presets.apis],
        layout: "BaseLayout"
      });
    </script>
  </body>
</html>`))

var (
	docsPage = renderDocsPage("todohub API", specPath)
	specETag = contentETag(docs.OpenAPI)
)

func renderDocsPage(title, specURL string) []byte {
	var buf bytes.Buffer
	if err := docsPageTmpl.Execute(&buf, struct{ Title, SpecURL string }{title, specURL}); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func contentETag(b []byte) string {
	sum := sha256.Sum256(b)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func SwaggerUI(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", docsPage)
}

// OpenAPISpec serves the embedded API description the UI loads. It only
// changes with a new build, so clients revalidate against a fixed ETag.
func OpenAPISpec(ctx *gin.Context) {
	ctx.Header("ETag", specETag)
	ctx.Header("Cache-Control", "public, no-cache")

	if etagMatches(ctx.GetHeader("If-None-Match"), specETag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", docs.OpenAPI)
}
