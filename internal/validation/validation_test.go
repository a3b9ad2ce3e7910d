package validation

import "testing"

func TestRequired(t *testing.T) {
	v := Violations{}
	Required("subject", "  ", v)
	Required("message", "ok", v)
	if v["subject"] != "required" {
		t.Fatalf("violations = %v, want subject required", v)
	}
	if _, ok := v["message"]; ok {
		t.Fatalf("message flagged despite value")
	}
}

func TestSIRET(t *testing.T) {
	cases := []struct {
		in    string
		valid bool
	}{
		{"55208131766522", true},
		{"552 081 317 66522", true},
		{"123", false},
		{"5520813176652A", false},
		{"", false},
	}
	for _, c := range cases {
		v := Violations{}
		SIRET("siret", c.in, v)
		if got := v.Empty(); got != c.valid {
			t.Fatalf("SIRET(%q) valid = %v, want %v", c.in, got, c.valid)
		}
	}
}

func TestEmail(t *testing.T) {
	for _, in := range []string{"a@b.fr", "user.name@mail.example.com"} {
		v := Violations{}
		Email("email", in, v)
		if !v.Empty() {
			t.Fatalf("Email(%q) flagged: %v", in, v)
		}
	}
	for _, in := range []string{"", "plain", "@b.fr", "a@", "a@nodot"} {
		v := Violations{}
		Email("email", in, v)
		if v.Empty() {
			t.Fatalf("Email(%q) not flagged", in)
		}
	}
}

func TestPassword(t *testing.T) {
	cases := []struct {
		in   string
		code string
	}{
		{"Abc123!x", ""},
		{"Très-Sûr1", ""},
		{"Ab1!", "too_short"},
		{"abc123!x", "needs_uppercase"},
		{"ABC123!X", "needs_lowercase"},
		{"Abcdefg!", "needs_digit"},
		{"Abc12345", "needs_special"},
	}
	for _, c := range cases {
		v := Violations{}
		Password("password", c.in, v)
		if v["password"] != c.code {
			t.Fatalf("Password(%q) = %q, want %q", c.in, v["password"], c.code)
		}
	}
}
