package runtime

import (
	"testing"

	appErr "codeduel/pkg/errors"
)

func TestRegistry_Defaults(t *testing.T) {
	r := NewRegistry()

	for _, id := range []string{"python", "cpp", "java", "javascript"} {
		if _, err := r.Get(id); err != nil {
			t.Errorf("Get(%q) returned error: %v", id, err)
		}
	}
}

func TestRegistry_GetUnsupported(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("cobol")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !appErr.Is(err, appErr.LanguageNotSupported) {
		t.Errorf("error code = %v, want LanguageNotSupported", appErr.GetCode(err))
	}
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	r := NewRegistry()
	r.Register(Language{
		ID:         "python",
		Name:       "Python 3.12",
		FileName:   "main.py",
		Image:      "python:3.12-slim",
		RunCommand: "python3 main.py",
	})

	lang, err := r.Get("python")
	if err != nil {
		t.Fatalf("Get(python) returned error: %v", err)
	}
	if lang.Image != "python:3.12-slim" {
		t.Errorf("Image = %v, want python:3.12-slim", lang.Image)
	}
}

func TestLanguage_Compiled(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		id   string
		want bool
	}{
		{"python", false},
		{"javascript", false},
		{"cpp", true},
		{"java", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			lang, err := r.Get(tt.id)
			if err != nil {
				t.Fatalf("Get(%q) returned error: %v", tt.id, err)
			}
			if got := lang.Compiled(); got != tt.want {
				t.Errorf("Compiled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLanguage_Argv(t *testing.T) {
	r := NewRegistry()
	lang, err := r.Get("cpp")
	if err != nil {
		t.Fatalf("Get(cpp) returned error: %v", err)
	}

	compileArgv, err := lang.CompileArgv()
	if err != nil {
		t.Fatalf("CompileArgv() returned error: %v", err)
	}
	if len(compileArgv) == 0 || compileArgv[0] != "g++" {
		t.Errorf("CompileArgv() = %v, want g++ first", compileArgv)
	}

	runArgv, err := lang.RunArgv()
	if err != nil {
		t.Fatalf("RunArgv() returned error: %v", err)
	}
	if len(runArgv) == 0 {
		t.Error("RunArgv() returned empty argv")
	}
}

func TestRegistry_Boilerplates(t *testing.T) {
	r := NewRegistry()

	bp := r.Boilerplates()
	if len(bp) == 0 {
		t.Fatal("Expected boilerplates, got none")
	}
	if _, ok := bp["python"]; !ok {
		t.Error("Boilerplates() missing python entry")
	}
}
