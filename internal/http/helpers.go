package http

import (
	"errors"
	"net/http"
	"strings"

	"viajjo/internal/auth"
	"viajjo/internal/core"
)

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// splitList splits on newlines and commas, dropping blanks.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' || r == '\r' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = sanitizeInput(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func formatReais(m core.Money) string {
	return "R$ " + m.String()
}

var errUnknownTrip = errors.New("unknown trip")

var validationMessages = []struct {
	err error
	msg string
}{
	{core.ErrEmptyDescription, "Informe uma descrição"},
	{core.ErrDescriptionLong, "Descrição muito longa (máx. 200 caracteres)"},
	{core.ErrInvalidAmount, "Valor inválido"},
	{core.ErrInvalidCategory, "Categoria inválida"},
	{core.ErrInvalidDate, "Data inválida"},
	{core.ErrEmptyDestination, "Informe o destino"},
	{core.ErrEmptyCompany, "Informe a empresa"},
	{core.ErrEmptyName, "Informe o nome"},
	{core.ErrEmptyHomeCity, "Informe a cidade de origem"},
	{core.ErrEmptyCity, "Informe as duas cidades"},
	{errUnknownTrip, "Viagem não encontrada"},
	{auth.ErrWeakPassword, "A senha deve ter pelo menos 6 caracteres"},
	{auth.ErrLongPassword, "A senha deve ter no máximo 72 caracteres"},
	{auth.ErrInvalidInput, "Informe um e-mail válido e uma senha"},
	{auth.ErrEmailExists, "Este e-mail já está cadastrado"},
	{auth.ErrInvalidCredentials, "E-mail ou senha inválidos"},
}

// userMessage maps known errors to Portuguese messages for the UI.
func userMessage(err error) string {
	for _, m := range validationMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "Dados inválidos"
}
