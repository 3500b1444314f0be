package util

import "testing"

func TestHashUserKey(t *testing.T) {
	id := "alice"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if got == HashUserKey("bob") {
		t.Fatalf("expected distinct hashes for distinct inputs")
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"avatar.png", "avatar.png", false},
		{"dir/avatar.png", "dir_avatar.png", false},
		{`dir\avatar.png`, "dir_avatar.png", false},
		{"../etc/passwd", "", true},
		{"   ", "", true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
