package preview

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// StatusPage is the minimal document used for 400 and 500 responses.
type StatusPage struct {
	Lang        Language
	Title       string
	Description string
}

// Status pages served outside the article flow.
var (
	MissingSlugPage = StatusPage{
		Lang:        LanguageES,
		Title:       "Error",
		Description: "No article identifier was provided.",
	}
	ServerErrorPage = StatusPage{
		Lang:        LanguageES,
		Title:       "Error",
		Description: "The preview could not be generated.",
	}
)

// Render writes doc as a complete HTML page.
func Render(w io.Writer, doc Document) error {
	if err := templates.ExecuteTemplate(w, "preview.html", doc); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	return nil
}

// RenderStatus writes page as a complete HTML page.
func RenderStatus(w io.Writer, page StatusPage) error {
	if err := templates.ExecuteTemplate(w, "status.html", page); err != nil {
		return fmt.Errorf("render status page: %w", err)
	}
	return nil
}
