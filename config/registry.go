package config

import (
	"bytes"
	"embed"
	"io"
	"os"
	"path"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed profiles/*.yaml
var builtinFS embed.FS

// DefaultProfile is used when no profile is named.
const DefaultProfile = "reddot"

// Registry holds profiles by name.
type Registry struct {
	profiles map[string]*Profile
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{profiles: make(map[string]*Profile)}
}

// Builtin returns a registry holding the built-in profiles.
func Builtin() (*Registry, error) {
	r := NewRegistry()
	entries, err := builtinFS.ReadDir("profiles")
	if err != nil {
		return nil, errors.Wrap(err, "reading built-in profiles")
	}
	// generic first: the vendor profiles extend it.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name() == "generic.yaml" && entries[j].Name() != "generic.yaml"
	})
	for _, e := range entries {
		data, err := builtinFS.ReadFile(path.Join("profiles", e.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", e.Name())
		}
		if err := r.LoadBytes(data, e.Name()); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Load reads profiles from a YAML file and adds them to the registry.
func (r *Registry) Load(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "reading profile file %s", filename)
	}
	return r.LoadBytes(data, filename)
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// LoadBytes parses YAML holding either a "profiles" list or a single
// profile, and adds the result. Unknown keys are rejected.
func (r *Registry) LoadBytes(data []byte, source string) error {
	var file profileFile
	if err := decodeStrict(data, &file); err != nil || len(file.Profiles) == 0 {
		var single Profile
		if err2 := decodeStrict(data, &single); err2 != nil {
			if err == nil {
				err = err2
			}
			return errors.Wrapf(err, "parsing %s", source)
		}
		file.Profiles = []Profile{single}
	}
	for _, p := range file.Profiles {
		if err := r.Add(p); err != nil {
			return errors.Wrapf(err, "loading %s", source)
		}
	}
	return nil
}

func decodeStrict(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(v)
	if err == io.EOF {
		return errors.New("empty document")
	}
	return err
}

// Add validates a profile and stores it, replacing any profile with the
// same name. A profile naming Extends starts from that profile's settings,
// which must already be in the registry.
func (r *Registry) Add(p Profile) error {
	prof := &p
	if p.Extends != "" {
		base, ok := r.profiles[p.Extends]
		if !ok {
			return errors.Errorf("profile %s extends unknown profile %q", p.Name, p.Extends)
		}
		prof = p.merge(base)
	}
	if err := prof.Validate(); err != nil {
		return err
	}
	r.profiles[prof.Name] = prof
	return nil
}

// Get returns the named profile.
func (r *Registry) Get(name string) (*Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := r.profiles[name]
	if !ok {
		return nil, errors.Errorf("unknown profile %q (available: %v)", name, r.Names())
	}
	return p, nil
}

// Names returns the registered profile names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
