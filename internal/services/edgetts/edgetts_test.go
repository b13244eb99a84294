package edgetts_test

import (
	"context"
	"strings"
	"testing"

	"redub/internal/services/edgetts"
)

func TestVoiceFor(t *testing.T) {
	configured := edgetts.NewService("", "es-ES-AlvaroNeural", "")
	voice, err := configured.VoiceFor("es")
	if err != nil {
		t.Fatalf("VoiceFor: %v", err)
	}
	if voice != "es-ES-AlvaroNeural" {
		t.Errorf("configured voice ignored: %q", voice)
	}

	fallback := edgetts.NewService("", "", "")
	voice, err = fallback.VoiceFor("es")
	if err != nil {
		t.Fatalf("VoiceFor: %v", err)
	}
	if voice != "es-MX-JorgeNeural" {
		t.Errorf("default voice = %q", voice)
	}

	if _, err := fallback.VoiceFor("xx"); err == nil {
		t.Error("expected error for language without a voice")
	}
}

func TestSynthesize(t *testing.T) {
	svc := edgetts.NewService("edge-tts", "", "+10%")
	var gotArgs []string
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		gotArgs = args
		return "", nil
	})

	if err := svc.Synthesize(context.Background(), "Hola mundo", "es", "out.mp3"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"--voice es-MX-JorgeNeural", "--text Hola mundo", "--write-media out.mp3", "--rate=+10%"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	svc := edgetts.NewService("", "", "")
	if err := svc.Synthesize(context.Background(), "  ", "es", "out.mp3"); err == nil {
		t.Fatal("expected error for empty text")
	}
}

const voiceTable = `Name                              Gender
--------------------------------  ------
es-MX-JorgeNeural                 Male
es-MX-DaliaNeural                 Female
en-US-GuyNeural                   Male
fr-FR-HenriNeural                 Male
`

func TestListVoicesFiltersByLanguage(t *testing.T) {
	svc := edgetts.NewService("", "", "")
	svc.WithRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		if len(args) != 1 || args[0] != "--list-voices" {
			t.Errorf("args = %v", args)
		}
		return voiceTable, nil
	})

	voices, err := svc.ListVoices(context.Background(), "spanish")
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(voices) != 2 {
		t.Fatalf("voices = %+v", voices)
	}
	if voices[0].Name != "es-MX-JorgeNeural" || voices[0].Gender != "Male" {
		t.Errorf("first voice = %+v", voices[0])
	}
	if voices[0].Locale() != "es-MX" {
		t.Errorf("locale = %q", voices[0].Locale())
	}

	all, err := svc.ListVoices(context.Background(), "")
	if err != nil {
		t.Fatalf("ListVoices: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("all voices = %d, want 4", len(all))
	}
}
