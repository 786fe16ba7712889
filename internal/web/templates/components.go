// Package templates holds the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/a-h/templ"
)

// ErrorAlert renders an error box with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="msg">%s</p>`,
			templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<small class="code">Código: %s</small></div>`, templ.EscapeString(code))
		return err
	})
}

// ImportSummary renders the completion line of an import run.
func ImportSummary(r core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "alert alert-ok"
		if r.Rejected > 0 {
			class = "alert alert-warn"
		}
		_, err := fmt.Fprintf(w,
			`<div class="%s" role="status" data-import-id="%s">%s</div>`,
			class,
			templ.EscapeString(r.ID),
			templ.EscapeString(r.Summary()))
		return err
	})
}

// Message renders a short success note, e.g. "Salvo com sucesso."
func Message(text string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="alert alert-ok" role="status">%s</div>`, templ.EscapeString(text))
		return err
	})
}

// AlertRows renders the dashboard alert table body.
func AlertRows(alerts []core.AlertView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(alerts) == 0 {
			_, err := io.WriteString(w, `<tr><td colspan="5">Nenhum alerta.</td></tr>`)
			return err
		}
		for _, a := range alerts {
			days := ""
			if a.DaysToEnd != nil {
				days = strconv.Itoa(*a.DaysToEnd)
			}
			_, err := fmt.Fprintf(w,
				`<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td><span class="badge %s">%s</span></td></tr>`,
				templ.EscapeString(a.PersonnelID),
				templ.EscapeString(a.PostID),
				templ.EscapeString(a.Reason),
				templ.EscapeString(a.EndDate),
				a.Badge,
				days,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
