// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package templates provides the page and fragment components.
package templates

import (
	"context"
	"embed"
	"html/template"
	"io"
	"slices"
	"strings"

	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"github.com/a-h/templ"
)

//go:embed html/*.html
var files embed.FS

var views = template.Must(template.New("").Funcs(template.FuncMap{
	"unknownDestination": func(d signup.Destination) bool {
		return d != "" && !slices.Contains(signup.Destinations(), d)
	},
}).ParseFS(files, "html/*.html"))

// component renders the named template with data.
func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return views.ExecuteTemplate(w, name, data)
	})
}

// FormView is what the signup form is rendered from.
type FormView struct {
	PageToken    string
	SiteKey      string
	State        signup.State
	Destinations []signup.Destination
}

// NewFormView builds the view of a form in state st.
func NewFormView(pageToken, siteKey string, st signup.State) FormView {
	return FormView{
		PageToken:    pageToken,
		SiteKey:      siteKey,
		State:        st,
		Destinations: signup.Destinations(),
	}
}

type layoutData struct {
	Title     string
	CSSPath   string
	JSPath    string
	CSRFToken string
	PageToken string
	SiteKey   string
	Content   template.HTML
}

// layout wraps body in the HTML document.
func layout(title, pageToken, siteKey string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		if err := body.Render(ctx, &sb); err != nil {
			return err
		}
		return views.ExecuteTemplate(w, "layout", layoutData{
			Title:     title,
			CSSPath:   CSSPath(ctx),
			JSPath:    JSPath(ctx),
			CSRFToken: CSRFToken(ctx),
			PageToken: pageToken,
			SiteKey:   siteKey,
			Content:   template.HTML(sb.String()), //nolint:gosec // rendered by html/template
		})
	})
}

// Home renders the full signup page.
func Home(v FormView) templ.Component {
	return layout("Space Signup", v.PageToken, v.SiteKey, component("home", v))
}

// Fields renders the input fields of the form.
func Fields(v FormView) templ.Component {
	return component("fields", v)
}

// Actions renders the submit and generate buttons.
func Actions(v FormView) templ.Component {
	return component("actions", v)
}

// Toast renders one notification.
func Toast(n signup.Notification) templ.Component {
	return component("toast", n)
}

// ToastsOOB renders notifications as an htmx out-of-band append to the toast list.
func ToastsOOB(ns []signup.Notification) templ.Component {
	if len(ns) == 0 {
		return templ.NopComponent
	}
	return component("toasts-oob", ns)
}

// RenderToast renders n to a string.
func RenderToast(n signup.Notification) (string, error) {
	var sb strings.Builder
	if err := Toast(n).Render(context.Background(), &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

type errorData struct {
	Code    int
	Title   string
	Message string
}

// Error renders a standalone error page.
func Error(code int, title, message string) templ.Component {
	return layout(title, "", "", component("error", errorData{Code: code, Title: title, Message: message}))
}
