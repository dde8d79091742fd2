package utils

import (
	"testing"
)

func TestParseAIJSON(t *testing.T) {
	type verdict struct {
		HasAnswer bool   `json:"has_answer"`
		Details   string `json:"details"`
	}

	tests := []struct {
		name    string
		input   string
		want    verdict
		wantErr bool
	}{
		{
			name:  "pure JSON",
			input: `{"has_answer": true, "details": "Vol couvert"}`,
			want:  verdict{HasAnswer: true, Details: "Vol couvert"},
		},
		{
			name:  "markdown json block",
			input: "```json\n{\"has_answer\": false, \"details\": \"Non couvert\"}\n```",
			want:  verdict{HasAnswer: false, Details: "Non couvert"},
		},
		{
			name:  "bare markdown block",
			input: "```\n{\"has_answer\": true, \"details\": \"ok\"}\n```",
			want:  verdict{HasAnswer: true, Details: "ok"},
		},
		{
			name:  "JSON with surrounding prose",
			input: `Voici ma réponse : {"has_answer": true, "details": "Assistance incluse"} J'espère que cela aide.`,
			want:  verdict{HasAnswer: true, Details: "Assistance incluse"},
		},
		{
			name:  "nested braces inside string",
			input: `{"has_answer": true, "details": "voir {conditions}"}`,
			want:  verdict{HasAnswer: true, Details: "voir {conditions}"},
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "no JSON at all",
			input:   "désolé, je ne peux pas répondre",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got verdict
			err := ParseAIJSON(tt.input, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAIJSON failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
