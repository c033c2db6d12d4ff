package handlers

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"date is midnight in loc", "2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, loc), false},
		{"rfc3339 keeps instant", "2024-02-29T23:30:00Z", time.Date(2024, 3, 1, 7, 30, 0, 0, loc), false},
		{"surrounding space", " 2024-01-01 ", time.Date(2024, 1, 1, 0, 0, 0, 0, loc), false},
		{"invalid day", "2023-02-29", time.Time{}, true},
		{"garbage", "next tuesday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTime(tt.input, loc)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) || got.Location() != loc {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
