package errview

import (
	"html/template"
	"io"
)

const pageTitle = "Error - Feed Manager"

var pageTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>Error</h1>
<p>{{.Summary}}</p>
{{- if .Details}}
<details>
<summary>Details</summary>
<pre>{{.Details}}</pre>
</details>
{{- end}}
<p><a href="/">Back to Feed Manager</a></p>
</body>
</html>
`))

type pageData struct {
	Title   string
	Summary string
	Details string
}

// RenderPage writes the standalone error document for d. A zero-value
// DisplayError renders with the fallback summary rather than a blank page.
func RenderPage(w io.Writer, d DisplayError) error {
	if d.Summary == "" {
		d.Summary = FallbackSummary
	}
	return pageTmpl.Execute(w, pageData{
		Title:   pageTitle,
		Summary: d.Summary,
		Details: d.Details,
	})
}
