package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"

	"climate-server/internal/modules/climate/types"
)

//go:embed templates
var viewsFS embed.FS

var welcomeTmpl *template.Template

// loadTemplatesFromFS parses the page templates found in dir of fsys.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	welcomeTmpl = tmpl
	return nil
}

// LoadTemplates parses the embedded templates. Call it once during startup;
// the server must not start if it fails.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// WelcomeData is the view model of the route listing page.
type WelcomeData struct {
	Title      string
	Routes     []types.Route
	DateFormat string
}

func RenderWelcome(w io.Writer, data *WelcomeData) error {
	if welcomeTmpl == nil {
		return errors.New("welcome template not loaded: call views.LoadTemplates during startup")
	}
	return welcomeTmpl.ExecuteTemplate(w, "welcome.html", data)
}
