// Package web embeds the server-rendered templates and static assets.
package web

import "embed"

// TemplatesFS holds the HTML templates for the calendar views.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds stylesheets and other static assets.
//
//go:embed static/*
var StaticFS embed.FS
