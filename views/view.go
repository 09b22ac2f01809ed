package views

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
)

// Render writes the component as an HTML response. The component is rendered
// into a buffer first so a failure can still be answered with a 500.
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}
