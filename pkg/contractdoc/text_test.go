package contractdoc

import "testing"

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text untouched",
			in:   "This agreement is made today.",
			want: "This agreement is made today.",
		},
		{
			name: "line breaks collapse to spaces",
			in:   "First line\nSecond line\r\nThird line",
			want: "First line Second line Third line",
		},
		{
			name: "repeated whitespace collapses",
			in:   "Too   many    spaces",
			want: "Too many spaces",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  \n padded \n ",
			want: "padded",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NormalizeText(c.in); got != c.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestSignatureCaption(t *testing.T) {
	cases := []struct {
		name     string
		person   string
		role     string
		signedAt string
		want     string
	}{
		{
			name:     "full caption",
			person:   "Ada Lovelace",
			role:     "landlord",
			signedAt: "2026-01-02 15:04",
			want:     "Ada Lovelace (landlord), signed 2026-01-02 15:04",
		},
		{
			name:   "no signed date",
			person: "Ada Lovelace",
			role:   "tenant",
			want:   "Ada Lovelace (tenant)",
		},
		{
			name:     "no role",
			person:   "Ada Lovelace",
			signedAt: "2026-01-02 15:04",
			want:     "Ada Lovelace, signed 2026-01-02 15:04",
		},
		{
			name:   "name only",
			person: "Ada Lovelace",
			want:   "Ada Lovelace",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := SignatureCaption(c.person, c.role, c.signedAt); got != c.want {
				t.Errorf("SignatureCaption() = %q, want %q", got, c.want)
			}
		})
	}
}
