package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"text/template"
)

// Format is a download format.
type Format string

const (
	Text Format = "txt"
	CSV  Format = "csv"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", Text:
		return Text, nil
	case CSV:
		return CSV, nil
	default:
		return "", fmt.Errorf("report format %q is not supported", s)
	}
}

// ContentType is the MIME type sent with a download.
func (f Format) ContentType() string {
	if f == CSV {
		return "text/csv; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Filename is the suggested download name.
func (f Format) Filename(r Report) string {
	return fmt.Sprintf("viajjo-relatorio-%s-%s.%s", r.Period, r.GeneratedAt.Format("2006-01-02"), f)
}

var textTemplate = template.Must(template.New("report").Parse(
	`{{.Title}}
Gerado em: {{.GeneratedAt.Format "2006-01-02 15:04"}}
Responsável: {{.Owner}}{{with .Company}} ({{.}}){{end}}
{{- if .Bounded}}
Período: {{.From.Format "2006-01-02"}} a {{.To.Format "2006-01-02"}}
{{- end}}

Total gasto: R$ {{.Summary.Total}}
Viagens: {{.Summary.Trips}}
Despesas: {{.Summary.Expenses}}
{{- if .Summary.Invalid}}
Valores inválidos (contados como zero): {{.Summary.Invalid}}
{{- end}}
{{- if .Categories}}

Por categoria:
{{- range .Categories}}
  {{printf "%-16s" .Category}} R$ {{.Amount}}
{{- end}}
{{- end}}
`))

// RenderText renders the fixed-layout text document.
func RenderText(r Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := textTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderCSV writes one row per expense in the report.
func RenderCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"data", "descricao", "categoria", "valor", "viagem"}); err != nil {
		return err
	}
	for _, e := range r.Expenses {
		amount := e.Amount
		if m, err := e.Cents(); err == nil {
			amount = m.String()
		}
		if err := cw.Write([]string{e.Date.String(), e.Description, string(e.Category), amount, e.TripID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Render writes r in format f.
func Render(w io.Writer, r Report, f Format) error {
	if f == CSV {
		return RenderCSV(w, r)
	}
	b, err := RenderText(r)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
