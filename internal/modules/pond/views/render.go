package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strconv"

	"duckwatch/internal/modules/pond/lane"
	"duckwatch/internal/modules/pond/status"
	"duckwatch/internal/modules/pond/types"
)

var pagesTmpl *template.Template

var errNotLoaded = errors.New("pond templates not loaded: call views.LoadTemplates during startup")

// Hex encodings used by the indicator blocks.
var colorHexes = map[lane.Color]string{
	lane.Red:    "#FF0000",
	lane.Green:  "#00FF00",
	lane.NoLane: "#808080",
}

var funcs = template.FuncMap{
	"num":       FormatNumber,
	"colorHex":  colorHex,
	"colorName": colorName,
}

// loadTemplatesFromFS loads page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("pond").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	pagesTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded page templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// FormatNumber prints v with the fewest digits that round-trip, so whole
// numbers print without a decimal point (75, not 75.00).
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func colorHex(c lane.Color) template.CSS {
	if hex, ok := colorHexes[c]; ok {
		return template.CSS(hex)
	}
	return template.CSS(colorHexes[lane.NoLane])
}

func colorName(c lane.Color) string {
	switch c {
	case lane.Red:
		return "red"
	case lane.Green:
		return "green"
	default:
		return "gray"
	}
}

type IndexData struct {
	Ponds []types.PondSummary
}

type NotFoundData struct {
	PondID string
}

func execute(w io.Writer, name string, data any) error {
	if pagesTmpl == nil {
		return errNotLoaded
	}
	return pagesTmpl.ExecuteTemplate(w, name, data)
}

// RenderToday renders the full status page for one pond.
func RenderToday(w io.Writer, view *status.View) error {
	return execute(w, "today.html", view)
}

func RenderIndex(w io.Writer, data *IndexData) error {
	return execute(w, "index.html", data)
}

func RenderNotFound(w io.Writer, data *NotFoundData) error {
	return execute(w, "notfound.html", data)
}

// RenderUnavailable renders the page shown when the store cannot be read.
func RenderUnavailable(w io.Writer) error {
	return execute(w, "unavailable.html", nil)
}
