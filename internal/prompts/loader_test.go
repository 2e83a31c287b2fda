package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoader_EmbeddedTemplate(t *testing.T) {
	loader := NewLoader()

	meta, err := loader.Meta(AgentPath("market_intelligence"))
	if err != nil {
		t.Fatal(err)
	}
	if meta.Name != "market_intelligence" {
		t.Errorf("Name = %q, want market_intelligence", meta.Name)
	}
	if meta.Phase != "research" {
		t.Errorf("Phase = %q, want research", meta.Phase)
	}
	if meta.Description == "" {
		t.Error("Description is empty")
	}
}

func TestLoader_Execute(t *testing.T) {
	loader := NewLoader()

	out, err := loader.Execute(AgentPath("gtm"), map[string]interface{}{
		"Launch": map[string]string{
			"Name":         "Widget 2.0",
			"ProductType":  "saas",
			"TargetMarket": "smb",
			"Description":  "",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Widget 2.0") {
		t.Errorf("rendered template missing launch name:\n%s", out)
	}
}

func TestLoader_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	agentDir := filepath.Join(dir, "agents")
	if err := os.MkdirAll(agentDir, 0o755); err != nil {
		t.Fatal(err)
	}

	override := "---\nname: gtm\nphase: launch\ndescription: overridden\n---\ncustom prompt body\n"
	if err := os.WriteFile(filepath.Join(agentDir, "gtm.md"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(dir)
	out, err := loader.Execute(AgentPath("gtm"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "custom prompt body") {
		t.Errorf("override not used, got:\n%s", out)
	}
}

func TestLoader_InvalidateDropsCache(t *testing.T) {
	dir := t.TempDir()
	agentDir := filepath.Join(dir, "agents")
	if err := os.MkdirAll(agentDir, 0o755); err != nil {
		t.Fatal(err)
	}

	write := func(body string) {
		content := "---\nname: gtm\nphase: launch\ndescription: x\n---\n" + body
		if err := os.WriteFile(filepath.Join(agentDir, "gtm.md"), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	loader := NewLoader(dir)
	write("version one")
	out, err := loader.Execute(AgentPath("gtm"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "version one") {
		t.Fatalf("got %q", out)
	}

	// Cached until invalidated
	write("version two")
	out, _ = loader.Execute(AgentPath("gtm"), nil)
	if !strings.Contains(out, "version one") {
		t.Errorf("expected cached content, got %q", out)
	}

	loader.Invalidate()
	out, _ = loader.Execute(AgentPath("gtm"), nil)
	if !strings.Contains(out, "version two") {
		t.Errorf("expected reloaded content, got %q", out)
	}
}

func TestParseFrontmatter_NoFrontmatter(t *testing.T) {
	meta, body, err := parseFrontmatter([]byte("just a body"))
	if err != nil {
		t.Fatal(err)
	}
	if meta != nil {
		t.Errorf("meta = %+v, want nil", meta)
	}
	if body != "just a body" {
		t.Errorf("body = %q", body)
	}
}
