package service

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0712345678", "+254712345678"},
		{"254712345678", "+254712345678"},
		{"+254712345678", "+254712345678"},
		{"712345678", "+254712345678"},
		{"0712 345 678", "+254712345678"},
		{"(0712) 345-678", "+254712345678"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizePhone(tc.in, "254"); got != tc.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizePhone_OtherCountryCode(t *testing.T) {
	if got := NormalizePhone("0772123456", "256"); got != "+256772123456" {
		t.Fatalf("unexpected number: %s", got)
	}
	if got := NormalizePhone("0712345678", ""); got != "+254712345678" {
		t.Fatalf("expected default country code, got %s", got)
	}
}

func TestMSISDN(t *testing.T) {
	if got := MSISDN("0712345678", "254"); got != "254712345678" {
		t.Fatalf("unexpected msisdn: %s", got)
	}
}
