// Package views renders the HTML pages of the application.
// Templates are embedded into the binary and parsed once.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sort"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/tinyapp/internal/models"
	"github.com/patric-chuzhbe/tinyapp/internal/user"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Page names.
const (
	PageGreeting = "greeting"
	PageURLs     = "urls_index"
	PageNewURL   = "urls_new"
	PageShowURL  = "urls_show"
	PageLogin    = "login"
	PageRegister = "register"
	PageError    = "error"
)

// Data is what every page receives. Fields a page does not use stay zero.
type Data struct {
	// User is the logged-in user shown in the header, nil for anonymous visitors.
	User *user.User

	URLs  []LinkRow
	ID    string
	Link  *models.Link
	Email string

	Status  int
	Message string
}

// LinkRow is one line of the links table.
type LinkRow struct {
	ID      string
	LongURL string
}

// Renderer executes page templates.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	pageNames := []string{
		PageGreeting,
		PageURLs,
		PageNewURL,
		PageShowURL,
		PageLogin,
		PageRegister,
		PageError,
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		page, err := template.ParseFS(templatesFS, "templates/layout.tmpl", "templates/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("in internal/views/views.go/New(): error while `template.ParseFS()` calling for %q: %w", name, err)
		}
		r.pages[name] = page
	}

	return r, nil
}

// Render writes the page with the given status. Nothing is written if the
// template fails.
func (r *Renderer) Render(response http.ResponseWriter, status int, name string, data Data) error {
	page, found := r.pages[name]
	if !found {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}

	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	response.WriteHeader(status)
	_, err := buf.WriteTo(response)

	return err
}

// Rows turns a link mapping into table rows sorted by short code.
func Rows(links models.Links) []LinkRow {
	ids := funk.Keys(links).([]string)
	sort.Strings(ids)

	rows := make([]LinkRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, LinkRow{
			ID:      id,
			LongURL: links[id].LongURL,
		})
	}

	return rows
}
