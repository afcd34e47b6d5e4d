package surface

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

//go:embed data/framework-surface.yml
var embeddedSurface []byte

// Framework describes the documented tool.
type Framework struct {
	Name       string `yaml:"name"`
	Invocation string `yaml:"invocation"`
	MinVersion string `yaml:"min_version"`
}

// Flag is a command line flag of a framework command.
type Flag struct {
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	Kind       string   `yaml:"kind"`
	Values     []string `yaml:"values"`
	Summary    string   `yaml:"summary"`
	Since      string   `yaml:"since"`
	Deprecated bool     `yaml:"deprecated"`
	ReplacedBy string   `yaml:"replaced_by"`
}

// Command is a framework subcommand together with its flags.
type Command struct {
	Name    string `yaml:"name"`
	Summary string `yaml:"summary"`
	Since   string `yaml:"since"`
	Flags   []Flag `yaml:"flags"`
}

// ConfigKey is a (possibly dotted) key of the framework configuration file.
type ConfigKey struct {
	Key        string   `yaml:"key"`
	Type       string   `yaml:"type"`
	Values     []string `yaml:"values"`
	Summary    string   `yaml:"summary"`
	Since      string   `yaml:"since"`
	Deprecated bool     `yaml:"deprecated"`
	ReplacedBy string   `yaml:"replaced_by"`
}

// Registry is the parsed framework surface: the commands, flags and config
// keys the guide is allowed to document.
type Registry struct {
	Framework  Framework   `yaml:"framework"`
	Commands   []Command   `yaml:"commands"`
	ConfigKeys []ConfigKey `yaml:"config_keys"`

	commandsByName map[string]*Command
	flagsByCommand map[string]map[string]*Flag
	keysByPath     map[string]*ConfigKey
	keyParents     map[string]bool
	minVersion     *version.Version
}

var flagKinds = map[string]bool{"bool": true, "string": true, "int": true, "enum": true}
var keyTypes = map[string]bool{"bool": true, "string": true, "int": true, "enum": true, "list": true, "object": true}

// LoadEmbedded parses the surface definition compiled into the binary.
func LoadEmbedded() (*Registry, error) {
	return Load(embeddedSurface)
}

// LoadFile parses a surface definition from disk, overriding the embedded one.
func LoadFile(pth string) (*Registry, error) {
	data, err := os.ReadFile(pth)
	if err != nil {
		return nil, fmt.Errorf("read surface file: %w", err)
	}
	return Load(data)
}

// Load parses and validates a surface definition.
func Load(data []byte) (*Registry, error) {
	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("parse surface definition: %w", err)
	}
	if err := registry.index(); err != nil {
		return nil, fmt.Errorf("invalid surface definition: %w", err)
	}
	return &registry, nil
}

func (r *Registry) index() error {
	if r.Framework.Name == "" {
		return fmt.Errorf("framework.name is empty")
	}
	if r.Framework.Invocation == "" {
		return fmt.Errorf("framework.invocation is empty")
	}
	if r.Framework.MinVersion != "" {
		v, err := version.NewVersion(r.Framework.MinVersion)
		if err != nil {
			return fmt.Errorf("framework.min_version (%s): %w", r.Framework.MinVersion, err)
		}
		r.minVersion = v
	}

	r.commandsByName = map[string]*Command{}
	r.flagsByCommand = map[string]map[string]*Flag{}
	for i := range r.Commands {
		command := &r.Commands[i]
		if command.Name == "" {
			return fmt.Errorf("command #%d has no name", i+1)
		}
		if _, ok := r.commandsByName[command.Name]; ok {
			return fmt.Errorf("duplicate command: %s", command.Name)
		}
		if err := validVersion(command.Since); err != nil {
			return fmt.Errorf("command %s: since: %w", command.Name, err)
		}
		r.commandsByName[command.Name] = command

		flags := map[string]*Flag{}
		for j := range command.Flags {
			flag := &command.Flags[j]
			if !strings.HasPrefix(flag.Name, "--") {
				return fmt.Errorf("command %s: flag %q does not start with --", command.Name, flag.Name)
			}
			if !flagKinds[flag.Kind] {
				return fmt.Errorf("command %s: flag %s has unknown kind %q", command.Name, flag.Name, flag.Kind)
			}
			if flag.Kind == "enum" && len(flag.Values) == 0 {
				return fmt.Errorf("command %s: enum flag %s has no values", command.Name, flag.Name)
			}
			if flag.Kind != "enum" && len(flag.Values) > 0 {
				return fmt.Errorf("command %s: %s flag %s must not list values", command.Name, flag.Kind, flag.Name)
			}
			if err := validVersion(flag.Since); err != nil {
				return fmt.Errorf("command %s: flag %s: since: %w", command.Name, flag.Name, err)
			}
			if flag.ReplacedBy != "" && !flag.Deprecated {
				return fmt.Errorf("command %s: flag %s has replaced_by but is not deprecated", command.Name, flag.Name)
			}
			for _, name := range append([]string{flag.Name}, flag.Aliases...) {
				if !strings.HasPrefix(name, "-") {
					return fmt.Errorf("command %s: flag alias %q does not start with -", command.Name, name)
				}
				if _, ok := flags[name]; ok {
					return fmt.Errorf("command %s: duplicate flag: %s", command.Name, name)
				}
				flags[name] = flag
			}
		}
		r.flagsByCommand[command.Name] = flags
	}

	r.keysByPath = map[string]*ConfigKey{}
	for i := range r.ConfigKeys {
		key := &r.ConfigKeys[i]
		if key.Key == "" {
			return fmt.Errorf("config key #%d has no key", i+1)
		}
		if _, ok := r.keysByPath[key.Key]; ok {
			return fmt.Errorf("duplicate config key: %s", key.Key)
		}
		if !keyTypes[key.Type] {
			return fmt.Errorf("config key %s has unknown type %q", key.Key, key.Type)
		}
		if key.Type == "enum" && len(key.Values) == 0 {
			return fmt.Errorf("enum config key %s has no values", key.Key)
		}
		if key.Type != "enum" && len(key.Values) > 0 {
			return fmt.Errorf("%s config key %s must not list values", key.Type, key.Key)
		}
		if err := validVersion(key.Since); err != nil {
			return fmt.Errorf("config key %s: since: %w", key.Key, err)
		}
		if key.ReplacedBy != "" && !key.Deprecated {
			return fmt.Errorf("config key %s has replaced_by but is not deprecated", key.Key)
		}
		r.keysByPath[key.Key] = key
	}
	r.keyParents = map[string]bool{}
	for _, key := range r.ConfigKeys {
		parent := parentPath(key.Key)
		r.keyParents[parent] = true
		if parent == "" {
			continue
		}
		parentKey, ok := r.keysByPath[parent]
		if !ok {
			return fmt.Errorf("config key %s has no registered parent %s", key.Key, parent)
		}
		if parentKey.Type != "object" {
			return fmt.Errorf("config key %s is nested under %s which is %s, not object", key.Key, parent, parentKey.Type)
		}
	}
	return nil
}

func validVersion(raw string) error {
	if raw == "" {
		return nil
	}
	_, err := version.NewVersion(raw)
	return err
}

func parentPath(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx == -1 {
		return ""
	}
	return key[:idx]
}

// Command returns the registered command with the given name.
func (r *Registry) Command(name string) (*Command, bool) {
	command, ok := r.commandsByName[name]
	return command, ok
}

// CommandNames returns the registered command names in sorted order.
func (r *Registry) CommandNames() []string {
	names := make([]string, 0, len(r.commandsByName))
	for name := range r.commandsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupFlag finds a flag of the given command by its name or alias.
func (r *Registry) LookupFlag(command, flag string) (*Flag, bool) {
	flags, ok := r.flagsByCommand[command]
	if !ok {
		return nil, false
	}
	f, ok := flags[flag]
	return f, ok
}

// LookupKey finds a config key by its dotted path.
func (r *Registry) LookupKey(path string) (*ConfigKey, bool) {
	key, ok := r.keysByPath[path]
	return key, ok
}

// HasRegisteredChildren reports whether the surface enumerates child keys
// under the given dotted path. The empty path is the config root. Objects
// without registered children (viewport, launchOptions) accept any key.
func (r *Registry) HasRegisteredChildren(path string) bool {
	return r.keyParents[path]
}

// MinVersion returns the minimum framework version the surface describes,
// or nil when none is set.
func (r *Registry) MinVersion() *version.Version {
	return r.minVersion
}

// SuggestCommand returns the closest registered command name within edit
// distance 2, or an empty string.
func (r *Registry) SuggestCommand(name string) string {
	return closestMatch(name, r.CommandNames())
}

// SuggestFlag returns the closest flag name of the command within edit
// distance 2, or an empty string.
func (r *Registry) SuggestFlag(command, flag string) string {
	flags, ok := r.flagsByCommand[command]
	if !ok {
		return ""
	}
	candidates := make([]string, 0, len(flags))
	for name := range flags {
		candidates = append(candidates, name)
	}
	sort.Strings(candidates)
	return closestMatch(flag, candidates)
}

// SuggestKey returns the closest config key path within edit distance 2,
// or an empty string.
func (r *Registry) SuggestKey(path string) string {
	candidates := make([]string, 0, len(r.keysByPath))
	for registered := range r.keysByPath {
		candidates = append(candidates, registered)
	}
	sort.Strings(candidates)
	return closestMatch(path, candidates)
}

const maxSuggestDistance = 2

func closestMatch(name string, candidates []string) string {
	best, bestDistance := "", maxSuggestDistance+1
	for _, candidate := range candidates {
		if distance := editDistance(name, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

// editDistance is the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
