package core

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ward  7, Kano", "WARD7KANO"},
		{"WARD7-KANO", "WARD7KANO"},
		{"ikeja", "IKEJA"},
		{"Ìbàdàn North", "IBADANNORTH"},
		{"Ọ̀yọ́", "OYO"},
		{"Akwa-Ibom", "AKWAIBOM"},
		{"  ", ""},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	for _, s := range []string{"Ìbàdàn North", "Ward 7", "FCT, Abuja"} {
		once := Canonicalize(s)
		if twice := Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestCanonicalState(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FCT", "FCT"},
		{"FCT, Abuja", "FCT"},
		{"Abuja FCT", "FCT"},
		{"Abuja", "FCT"},
		{"Federal Capital Territory", "FCT"},
		{"Nassarawa", "NASARAWA"},
		{"Nasarawa", "NASARAWA"},
		{"Lagos", "LAGOS"},
	}

	for _, tt := range tests {
		if got := CanonicalState(tt.in); got != tt.want {
			t.Errorf("CanonicalState(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
