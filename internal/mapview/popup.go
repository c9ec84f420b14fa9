package mapview

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Popup renders the marker popup. Entity text is stripped of markup and escaped.
func Popup(p Point) string {
	var b strings.Builder
	b.WriteString("<strong>")
	b.WriteString(text(p.Name, "Tanpa Nama"))
	b.WriteString("</strong><br>")
	b.WriteString(text(p.City, "Tanpa Kota"))
	b.WriteString(", ")
	b.WriteString(text(p.Province, "Tanpa Provinsi"))
	b.WriteString("<br><small>")
	b.WriteString(text(p.Summary, "Tidak ada deskripsi"))
	b.WriteString("</small>")
	return b.String()
}

func text(v, def string) string {
	clean := strings.TrimSpace(strict.Sanitize(v))
	if clean == "" {
		return def
	}
	return clean
}
