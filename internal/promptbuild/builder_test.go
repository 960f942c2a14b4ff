package promptbuild

import (
	"strings"
	"sync"
	"testing"
)

func baseInput() Input {
	return Input{
		Brief:        "affiche culte dimanche église",
		AspectRatio:  "3:4",
		OutputFormat: "png",
		Language:     "fr",
	}
}

func TestBuildFreeModeHasExpertAndBrief(t *testing.T) {
	b := NewBuilder(0)
	in := baseInput()
	prompt := b.Build(in)

	if !strings.Contains(prompt, ExpertLead) {
		t.Fatal("free mode prompt missing expert directive")
	}
	if !strings.Contains(prompt, "church and gospel") {
		t.Fatalf("expected church expert styling, got:\n%s", prompt)
	}
	if strings.Contains(prompt, CloneLead) {
		t.Fatal("free mode prompt must not carry clone directives")
	}
	if !strings.Contains(prompt, in.Brief) {
		t.Fatal("prompt missing the literal brief")
	}
	if !strings.Contains(prompt, "Typography:") {
		t.Fatal("prompt missing typographic directive")
	}
	if !strings.Contains(prompt, "FRENCH") {
		t.Fatal("prompt missing language directive")
	}
}

func TestBuildDomainHintOverridesDetection(t *testing.T) {
	b := NewBuilder(0)
	in := baseInput() // brief scores as church
	in.DomainHint = "restaurant"
	prompt := b.Build(in)

	if !strings.Contains(prompt, "food and restaurant") {
		t.Fatalf("expected restaurant expert styling, got:\n%s", prompt)
	}
	if strings.Contains(prompt, "church and gospel") {
		t.Fatal("hint must override brief detection")
	}
}

func TestBuildUnknownDomainHintIgnored(t *testing.T) {
	b := NewBuilder(0)
	in := baseInput()
	in.DomainHint = "spaceships"
	prompt := b.Build(in)

	if !strings.Contains(prompt, "church and gospel") {
		t.Fatalf("unknown hint must fall back to detection, got:\n%s", prompt)
	}
}

func TestBuildConcurrentRequests(t *testing.T) {
	b := NewBuilder(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				in := baseInput()
				if prompt := b.Build(in); !strings.Contains(prompt, "Typography:") {
					t.Error("prompt missing typographic directive")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestBuildCloneModeOnReference(t *testing.T) {
	b := NewBuilder(0)
	in := baseInput()
	in.HasReference = true
	prompt := b.Build(in)

	if !strings.Contains(prompt, CloneLead) {
		t.Fatal("clone mode prompt missing clone directives")
	}
	if strings.Contains(prompt, ExpertLead) {
		t.Fatal("clone mode prompt must not carry expert styling")
	}
	if !strings.Contains(prompt, "remove that element cleanly") {
		t.Fatal("clone mode prompt missing removal rule")
	}
}

func TestBuildAutoTemplateForcesCloneMode(t *testing.T) {
	b := NewBuilder(0)
	in := baseInput()
	in.AutoTemplate = true
	prompt := b.Build(in)

	if !strings.Contains(prompt, CloneLead) {
		t.Fatal("auto-selected template must force clone mode")
	}
}

func TestBuildIntegrationDirectives(t *testing.T) {
	b := NewBuilder(0)
	in := baseInput()
	in.LogoCount = 2
	in.LogoPositions = []string{"top-left", "top-right"}
	in.HasContentImage = true
	in.SecondaryInstructions = []string{"place near the date block", ""}
	prompt := b.Build(in)

	if !strings.Contains(prompt, "2 supplied logo image(s)") {
		t.Fatal("prompt missing logo integration")
	}
	if !strings.Contains(prompt, "top-left, top-right") {
		t.Fatal("prompt missing logo positions")
	}
	if !strings.Contains(prompt, "main visual subject") {
		t.Fatal("prompt missing content image directive")
	}
	if !strings.Contains(prompt, "Additional image 1: place near the date block.") {
		t.Fatal("prompt missing secondary instruction")
	}
	if !strings.Contains(prompt, "Additional image 2:") {
		t.Fatal("prompt missing default secondary instruction")
	}
}

func TestBuildTruncatesBriefNotStructure(t *testing.T) {
	b := NewBuilder(1200)
	in := baseInput()
	in.Brief = strings.Repeat("grande soirée de louange ", 200)
	prompt := b.Build(in)

	if len(prompt) > 1200 {
		t.Fatalf("prompt over ceiling: %d", len(prompt))
	}
	if !strings.Contains(prompt, "aspect ratio 3:4") {
		t.Fatal("truncation removed the trailing format directive")
	}
	if !strings.Contains(prompt, "FRENCH") {
		t.Fatal("truncation removed the language directive")
	}
}

func TestBuildNeverSplitsRunes(t *testing.T) {
	b := NewBuilder(1000)
	in := baseInput()
	in.Brief = strings.Repeat("église été à côté ", 100)
	prompt := b.Build(in)

	if len(prompt) > 1000 {
		t.Fatalf("prompt over ceiling: %d", len(prompt))
	}
	if !strings.Contains(prompt, "Output:") {
		t.Fatal("structural directive lost")
	}
	for _, r := range prompt {
		if r == '�' {
			t.Fatal("prompt contains a broken rune")
		}
	}
}
