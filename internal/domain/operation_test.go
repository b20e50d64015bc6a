package domain

import (
	"strings"
	"testing"
)

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		wantErr string
	}{
		{
			name: "valid replace",
			op:   Operation{Name: "Proofread", Mode: DeliveryReplace, Template: "{{.Text}}"},
		},
		{
			name: "valid window default",
			op:   Operation{Name: "Chat", Mode: DeliveryWindow, Template: "{{.Text}}", NoSelectionDefault: true},
		},
		{
			name:    "empty name",
			op:      Operation{Mode: DeliveryReplace, Template: "{{.Text}}"},
			wantErr: "empty name",
		},
		{
			name:    "bad mode",
			op:      Operation{Name: "X", Mode: "sideways", Template: "{{.Text}}"},
			wantErr: "invalid delivery mode",
		},
		{
			name:    "replace default",
			op:      Operation{Name: "X", Mode: DeliveryReplace, Template: "{{.Text}}", NoSelectionDefault: true},
			wantErr: "must deliver to a window",
		},
		{
			name:    "bad template",
			op:      Operation{Name: "X", Mode: DeliveryReplace, Template: "{{.Text"},
			wantErr: "bad template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	op := Operation{Name: "Custom", Mode: DeliveryReplace, Template: "Described change: {{.Change}}\n\nText: {{.Text}}"}

	got, err := op.RenderPrompt("hello world", "make it formal")
	if err != nil {
		t.Fatalf("RenderPrompt() error = %v", err)
	}
	want := "Described change: make it formal\n\nText: hello world"
	if got != want {
		t.Errorf("RenderPrompt() = %q, want %q", got, want)
	}
}

func TestRenderPromptPlainTemplate(t *testing.T) {
	op := Operation{Name: "Proofread", Mode: DeliveryReplace, Template: "{{.Text}}"}

	got, err := op.RenderPrompt("their going", "")
	if err != nil {
		t.Fatalf("RenderPrompt() error = %v", err)
	}
	if got != "their going" {
		t.Errorf("RenderPrompt() = %q", got)
	}
}
