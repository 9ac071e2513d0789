// Package runtime holds the static table of supported language runtimes.
package runtime

import (
	"sync"

	appErr "codeduel/pkg/errors"

	"github.com/google/shlex"
)

// Language describes one supported runtime: the sandbox image, the source
// file name inside the sandbox, and the commands used to build and run it.
type Language struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	FileName       string `json:"fileName" yaml:"fileName"`
	Image          string `json:"-" yaml:"image"`
	CompileCommand string `json:"-" yaml:"compileCommand"` // empty for interpreted languages
	RunCommand     string `json:"-" yaml:"runCommand"`
	Boilerplate    string `json:"boilerplate" yaml:"boilerplate"`

	// InteractiveStdin marks runtimes that block on stdin reads; they get
	// stdin attached even when the input is empty.
	InteractiveStdin bool `json:"-" yaml:"interactiveStdin"`
}

// Compiled reports whether this language needs a compile phase.
func (l Language) Compiled() bool {
	return l.CompileCommand != ""
}

// CompileArgv returns the compile command parsed into an argv vector.
func (l Language) CompileArgv() ([]string, error) {
	return parseCommand(l.CompileCommand)
}

// RunArgv returns the run command parsed into an argv vector.
func (l Language) RunArgv() ([]string, error) {
	return parseCommand(l.RunCommand)
}

func parseCommand(command string) ([]string, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.InvalidParams, "invalid runtime command: %s", command)
	}
	if len(argv) == 0 {
		return nil, appErr.Newf(appErr.InvalidParams, "empty runtime command")
	}
	return argv, nil
}

// Registry maps language identifiers to their runtime definitions.
type Registry struct {
	mu        sync.RWMutex
	languages map[string]Language
}

// NewRegistry creates a registry pre-populated with the default languages.
func NewRegistry() *Registry {
	r := &Registry{languages: make(map[string]Language)}
	for _, lang := range defaultLanguages() {
		r.Register(lang)
	}
	return r
}

// Register adds or replaces a language definition.
func (r *Registry) Register(lang Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages[lang.ID] = lang
}

// Get returns the language definition for the given identifier.
func (r *Registry) Get(id string) (Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.languages[id]
	if !ok {
		return Language{}, appErr.Newf(appErr.LanguageNotSupported, "language %q is not supported", id)
	}
	return lang, nil
}

// List returns all registered languages.
func (r *Registry) List() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	langs := make([]Language, 0, len(r.languages))
	for _, l := range r.languages {
		langs = append(langs, l)
	}
	return langs
}

// Boilerplates returns the language → starter code mapping used when a
// challenge document carries none of its own.
func (r *Registry) Boilerplates() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.languages))
	for id, l := range r.languages {
		out[id] = l.Boilerplate
	}
	return out
}

func defaultLanguages() []Language {
	return []Language{
		{
			ID:               "python",
			Name:             "Python",
			FileName:         "main.py",
			Image:            "python:3.11-slim",
			RunCommand:       "python3 main.py",
			InteractiveStdin: true,
			Boilerplate:      "# Read input with input(), print the result\n",
		},
		{
			ID:             "cpp",
			Name:           "C++",
			FileName:       "main.cpp",
			Image:          "gcc:13",
			CompileCommand: "g++ -O2 -o main main.cpp",
			RunCommand:     "./main",
			Boilerplate: `#include <iostream>
#include <string>
using namespace std;

int main() {
    return 0;
}
`,
		},
		{
			ID:             "java",
			Name:           "Java",
			FileName:       "Main.java",
			Image:          "openjdk:17-slim",
			CompileCommand: "javac Main.java",
			RunCommand:     "java -cp . Main",
			Boilerplate: `import java.util.*;

public class Main {
    public static void main(String[] args) {
        Scanner scanner = new Scanner(System.in);
    }
}
`,
		},
		{
			ID:          "javascript",
			Name:        "JavaScript",
			FileName:    "main.js",
			Image:       "node:20-slim",
			RunCommand:  "node main.js",
			Boilerplate: "// Read stdin, write the result with console.log\n",
		},
	}
}
