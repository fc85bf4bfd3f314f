// Package docc marshals arguments for and launches the external docc
// documentation compiler. All rendering is delegated to docc itself; this
// package only prepares inputs and supervises the process.
package docc

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/doccbuild/internal/config"
	"git.home.luguber.info/inful/doccbuild/internal/target"
)

// Arguments is an ordered docc command-line argument list.
type Arguments []string

// Contains reports whether the flag (e.g. "--output-path") is already present,
// either standalone or in --flag=value form.
func (a Arguments) Contains(flag string) bool {
	prefix := flag + "="
	for _, arg := range a {
		if arg == flag || strings.HasPrefix(arg, prefix) {
			return true
		}
	}
	return false
}

// AppendIfMissing appends flag and its values unless the user already
// supplied the flag. User-provided flags always win over defaults.
func (a Arguments) AppendIfMissing(flag string, values ...string) Arguments {
	if a.Contains(flag) {
		return a
	}
	return append(append(a, flag), values...)
}

// BuildArguments merges user-supplied docc flags with defaults for one
// target: fallback display name, fallback bundle identifier and output path
// are filled in only when absent, mirroring how docc expects plugin callers
// to behave.
func BuildArguments(cfg config.DoccConfig, t target.Target, userArgs []string) Arguments {
	args := Arguments(nil)
	args = append(args, userArgs...)
	args = append(args, cfg.ExtraFlags...)

	args = args.AppendIfMissing("--fallback-display-name", DisplayName(t.Name))
	args = args.AppendIfMissing("--fallback-bundle-identifier", bundleIdentifier(t.Name))
	if cfg.Output != "" {
		args = args.AppendIfMissing("--output-path", cfg.Output)
	}
	if cfg.HostingBasePath != "" {
		args = args.AppendIfMissing("--hosting-base-path", cfg.HostingBasePath)
	}
	if cfg.SymbolGraphDir != "" {
		args = args.AppendIfMissing("--additional-symbol-graph-dir", cfg.SymbolGraphDir)
	}
	return args
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// DisplayName derives a human-readable display name from a target or snippet
// identifier: separators become spaces and words are title-cased.
func DisplayName(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(name)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return name
	}
	return titleCaser.String(cleaned)
}

// bundleIdentifier derives a reverse-DNS style identifier for a target.
func bundleIdentifier(name string) string {
	slug := strings.ToLower(strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	}), "-"))
	if slug == "" {
		slug = "package"
	}
	return fmt.Sprintf("generated.%s", slug)
}
