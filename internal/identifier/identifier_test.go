package identifier

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"exact", "JH-RU-2021-004567", "JH-RU-2021-004567", true},
		{"lowercase is normalized", "jh-ru-2021-004567", "JH-RU-2021-004567", true},
		{"embedded in filename", "scan_jh-Nu-2019-000123_final.png", "JH-NU-2019-000123", true},
		{"longer serial", "JH-AB-2020-1234567890", "JH-AB-2020-1234567890", true},
		{"first of two", "JH-AA-2020-111111 and JH-BB-2021-222222", "JH-AA-2020-111111", true},
		{"serial too short", "JH-RU-2021-04567", "", false},
		{"year too short", "JH-RU-202-004567", "", false},
		{"digits in letters", "JH-R1-2021-004567", "", false},
		{"empty", "", "", false},
		{"no identifier", "certificate.png", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Extract(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInfer(t *testing.T) {
	t.Run("QR payload takes precedence", func(t *testing.T) {
		got := Infer("JH-AA-2020-111111.png", "https://registry.example/c/JH-BB-2021-222222")
		if got != "JH-BB-2021-222222" {
			t.Errorf("Infer() = %q, want %q", got, "JH-BB-2021-222222")
		}
	})

	t.Run("falls back to filename", func(t *testing.T) {
		got := Infer("JH-AA-2020-111111.png", "no number here")
		if got != "JH-AA-2020-111111" {
			t.Errorf("Infer() = %q, want %q", got, "JH-AA-2020-111111")
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		if got := Infer("scan.png", ""); got != "" {
			t.Errorf("Infer() = %q, want empty", got)
		}
	})
}

func TestValid(t *testing.T) {
	if !Valid("JH-RU-2021-004567") {
		t.Error("Valid() = false for normalized identifier")
	}
	if Valid("jh-ru-2021-004567") {
		t.Error("Valid() = true for lowercase identifier")
	}
	if Valid("x JH-RU-2021-004567") {
		t.Error("Valid() = true for identifier with surrounding text")
	}
}
