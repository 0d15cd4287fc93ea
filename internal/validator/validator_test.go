package validator

import (
	"errors"
	"testing"
	"time"
)

func TestDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	got, err := Date("2025-03-14", loc)
	if err != nil {
		t.Fatalf("Date returned error for valid input: %v", err)
	}

	want := time.Date(2025, 3, 14, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("Date = %v, want %v", got, want)
	}

	bad := []string{
		"14-03-2025",
		"2025/03/14",
		"2025-3-14",
		"2025-03-14 10:00",
		"2025-13-01",
		"2025-02-30",
		"tomorrow",
		"",
	}
	for _, s := range bad {
		if _, err := Date(s, loc); !errors.Is(err, ErrInvalid) {
			t.Errorf("Date(%q) error = %v, want ErrInvalid", s, err)
		}
	}
}

func TestDateTime(t *testing.T) {
	loc := time.UTC

	got, err := DateTime("2025-03-14 10:30", loc)
	if err != nil {
		t.Fatalf("DateTime returned error for valid input: %v", err)
	}

	want := time.Date(2025, 3, 14, 10, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DateTime = %v, want %v", got, want)
	}

	bad := []string{
		"2025-03-14",
		"2025-03-14 10:30:00",
		"2025-03-14T10:30",
		"2025-03-14 25:00",
		"2025-03-14 10:75",
		"",
	}
	for _, s := range bad {
		if _, err := DateTime(s, loc); !errors.Is(err, ErrInvalid) {
			t.Errorf("DateTime(%q) error = %v, want ErrInvalid", s, err)
		}
	}
}

func TestClientID(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1000000", want: "1000000"},
		{in: "99999999", want: "99999999"},
		{in: "12345678", want: "12345678"},
		{in: "01234567", want: "1234567"}, // leading zero normalized away
		{in: "999999", wantErr: true},     // below range
		{in: "100000000", wantErr: true},  // above range
		{in: "-1234567", wantErr: true},
		{in: "abc1234", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ClientID(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("ClientID(%q) error = %v, want ErrInvalid", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ClientID(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ClientID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
