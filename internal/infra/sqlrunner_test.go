package infra

import "testing"

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantBody   string
		wantErr    bool
	}{
		{
			name:       "valid marker",
			query:      "\n--sql 0b0d7c1e-51f6-4c0e-a7e4-2f0c6a7f0d11\nselect 1;\n",
			wantMarker: "0b0d7c1e-51f6-4c0e-a7e4-2f0c6a7f0d11",
			wantBody:   "select 1;",
		},
		{name: "missing marker", query: "select 1;", wantErr: true},
		{name: "uppercase uuid rejected", query: "--sql 0B0D7C1E-51F6-4C0E-A7E4-2F0C6A7F0D11\nselect 1;", wantErr: true},
		{name: "empty", query: "   ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := ExtractMarker(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ExtractMarker() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractMarker() error: %v", err)
			}
			if marker != tc.wantMarker || body != tc.wantBody {
				t.Fatalf("ExtractMarker() = %q, %q; want %q, %q", marker, body, tc.wantMarker, tc.wantBody)
			}
		})
	}
}
