// Package templates renders the server's HTML fragments as templ components.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// TypeLink is one exportable type on the index page.
type TypeLink struct {
	Key      string
	Group    string
	Label    string
	CanApply bool
}

// Index lists the registered types with export links and an upload form.
func Index(types []TypeLink) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>xlport</title></head><body><h1>Spreadsheet export and import</h1>`); err != nil {
			return err
		}
		if len(types) == 0 {
			_, err := io.WriteString(w, `<p>No record types are registered.</p></body></html>`)
			return err
		}

		group := ""
		for i, t := range types {
			if t.Group != group {
				if i > 0 {
					io.WriteString(w, `</ul>`)
				}
				group = t.Group
				fmt.Fprintf(w, `<h2>%s</h2><ul>`, templ.EscapeString(group))
			}
			key := templ.EscapeString(t.Key)
			fmt.Fprintf(w, `<li>%s <a href="/api/export/%s?format=xlsx">xlsx</a> <a href="/api/export/%s?format=csv">csv</a>`,
				templ.EscapeString(t.Label), key, key)
			fmt.Fprintf(w, `<form method="post" action="/api/import/%s" enctype="multipart/form-data"><input type="file" name="file">`, key)
			if t.CanApply {
				io.WriteString(w, `<label><input type="checkbox" name="apply" value="true"> apply</label>`)
			}
			io.WriteString(w, `<button type="submit">Import</button></form></li>`)
		}
		_, err := io.WriteString(w, `</ul></body></html>`)
		return err
	})
}

// ErrorAlert renders a user-facing error with its suggested action and code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert alert-error" role="alert"><p>%s</p>`, templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(w, `<small class="alert-code">%s</small>`, templ.EscapeString(code))
		}
		_, err = io.WriteString(w, `</div>`)
		return err
	})
}
