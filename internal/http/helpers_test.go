package http

import (
	"fmt"
	"testing"

	"viajjo/internal/auth"
	"viajjo/internal/core"
)

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  Hotel  ":       "Hotel",
		"Jan\x00tar":      "Jantar",
		"linha1\nlinha2":  "linha1\nlinha2",
		"\x07\x08":        "",
		"Café da manhã\t": "Café da manhã",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList("a.png, b.png\n\n c.png ,")
	want := []string{"a.png", "b.png", "c.png"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("splitList = %v, want %v", got, want)
	}
	if len(splitList("")) != 0 {
		t.Error("expected empty list")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{core.ErrInvalidAmount, "Valor inválido"},
		{fmt.Errorf("wrapped: %w", core.ErrEmptyDestination), "Informe o destino"},
		{auth.ErrWeakPassword, "A senha deve ter pelo menos 6 caracteres"},
		{auth.ErrInvalidInput, "Informe um e-mail válido e uma senha"},
		{fmt.Errorf("other"), "Dados inválidos"},
	}
	for _, tt := range tests {
		if got := userMessage(tt.err); got != tt.want {
			t.Errorf("userMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestFormatReais(t *testing.T) {
	if got := formatReais(core.Money{Cents: 19550}); got != "R$ 195.50" {
		t.Errorf("formatReais = %q", got)
	}
}
