package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"spa", "es"},
		{"fra", "fr"},
		{"fre", "fr"},
		{"ger", "de"},
		{"chi", "zh"},
		{"spanish", "es"},
		{"xx", "xx"},
		{"xyz", ""},
		{"", ""},
		{"  es  ", "es"},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "eng"},
		{"es", "spa"},
		{"fre", "fra"},
		{"", "und"},
		{"qqq", "qqq"},
		{"qq", "und"},
	}
	for _, tt := range tests {
		if got := ToISO3(tt.input); got != tt.expected {
			t.Errorf("ToISO3(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("es"); got != "Spanish" {
		t.Errorf("DisplayName(es) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Errorf("DisplayName(empty) = %q", got)
	}
	if got := DisplayName("tlh"); got != "TLH" {
		t.Errorf("DisplayName(tlh) = %q", got)
	}
}

func TestDefaultVoice(t *testing.T) {
	if got := DefaultVoice("es"); got != "es-MX-JorgeNeural" {
		t.Errorf("DefaultVoice(es) = %q", got)
	}
	if got := DefaultVoice("spanish"); got != "es-MX-JorgeNeural" {
		t.Errorf("DefaultVoice(spanish) = %q", got)
	}
	if got := DefaultVoice("xyz"); got != "" {
		t.Errorf("DefaultVoice(xyz) = %q", got)
	}
}

func TestVoiceLocale(t *testing.T) {
	if got := VoiceLocale("es-MX-JorgeNeural"); got != "es-MX" {
		t.Errorf("VoiceLocale = %q", got)
	}
	if got := VoiceLocale("bad"); got != "" {
		t.Errorf("VoiceLocale(bad) = %q", got)
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"ENG", "es", " spanish ", "", "fr"})
	want := []string{"en", "es", "fr"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("NormalizeList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
