package statusweb

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"

	"mediasearch/internal/media"
)

// statusRowClasses merges a base row style with a state-dependent accent,
// the same way the teacher merges Tailwind classes for its website rows.
func statusRowClasses(p media.ProviderStatus) string {
	base := "flex items-center justify-between border-b border-slate-200 px-4 py-3"
	switch {
	case !p.Enabled:
		return twmerge.Merge(base, "opacity-50 bg-slate-50")
	case p.RequiresAuth && !p.AuthConfigured:
		return twmerge.Merge(base, "bg-amber-50 text-amber-900")
	case p.RateLimitQuota > 0 && p.Remaining == 0:
		return twmerge.Merge(base, "bg-red-50 text-red-900")
	default:
		return twmerge.Merge(base, "bg-white")
	}
}

func badge(p media.ProviderStatus) string {
	switch {
	case !p.Enabled:
		return "disabled"
	case p.RequiresAuth && !p.AuthConfigured:
		return "missing credentials"
	case p.RateLimitQuota > 0 && p.Remaining == 0:
		return "rate limited"
	default:
		return "ready"
	}
}

// dashboardPage renders the operational status dashboard (spec §4.2, §6).
// Hand-built as a templ.Component rather than generated from a .templ
// source file, the same runtime contract `templ generate` targets.
func dashboardPage(statuses []media.ProviderStatus, generatedAt time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html><html><head><meta charset="utf-8">`+
			`<title>mediasearch provider status</title>`+
			`<script src="https://cdn.tailwindcss.com"></script></head>`+
			`<body class="bg-slate-100 font-sans text-sm">`+
			`<main class="mx-auto max-w-3xl py-8">`+
			`<h1 class="text-xl font-semibold mb-1">Provider status</h1>`); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<p class="text-slate-500 mb-4">generated %s</p>`,
			html.EscapeString(humanize.Time(generatedAt))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<div class="rounded border border-slate-200 overflow-hidden">`); err != nil {
			return err
		}
		for _, p := range statuses {
			if err := renderRow(w, p, generatedAt); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</div></main></body></html>`); err != nil {
			return err
		}
		return nil
	})
}

func renderRow(w io.Writer, p media.ProviderStatus, now time.Time) error {
	remaining := "unlimited"
	if p.RateLimitQuota > 0 {
		remaining = fmt.Sprintf("%d / %d, resets in %s", p.Remaining, p.RateLimitQuota,
			humanize.RelTime(now, now.Add(time.Duration(p.ResetSeconds)*time.Second), "from now", "ago"))
	}
	_, err := fmt.Fprintf(w,
		`<div class="%s"><div><span class="font-medium">%s</span>`+
			`<span class="ml-2 text-xs uppercase tracking-wide text-slate-400">priority %d</span></div>`+
			`<div class="text-right"><div>%s</div><div class="text-xs text-slate-500">%s</div></div></div>`,
		statusRowClasses(p), html.EscapeString(p.Name), p.Priority,
		html.EscapeString(badge(p)), html.EscapeString(remaining))
	return err
}
