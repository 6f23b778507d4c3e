package convert

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/solatis/listsmith/internal/rules"
	"github.com/solatis/listsmith/internal/types"
)

// HeaderPlaceholders lists the names a header template may reference.
var HeaderPlaceholders = []string{"now", "title", "description", "homepage", "license"}

// RenderHeader expands the header template of data and returns its lines
// without any comment prefix. A task without headers yields nil.
func RenderHeader(data types.TaskData, now time.Time) ([]string, error) {
	if data.Headers == "" {
		return nil, nil
	}
	tmpl, err := rules.ParseTemplate(strings.TrimRight(data.Headers, "\n"), HeaderPlaceholders...)
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}
	text := tmpl.Execute(map[string]string{
		"now":         now.UTC().Format(types.TimestampLayout),
		"title":       data.Title,
		"description": data.Description,
		"homepage":    data.Homepage,
		"license":     data.License,
	})
	return strings.Split(text, "\n"), nil
}

func writeHeader(w io.Writer, prefix string, data types.TaskData, now time.Time) error {
	lines, err := RenderHeader(data, now)
	if err != nil {
		return err
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(prefix)
		b.WriteString(l)
		b.WriteByte('\n')
	}
	_, err = io.WriteString(w, b.String())
	return err
}
