//go:build !tinygo

package config

import (
	"bytes"
	"embed"
	"errors"
	"path"
	"strings"

	"golang.org/x/exp/slices"
)

//go:embed profiles/*.yaml
var rawProfiles embed.FS

var ErrUnknownProfile = errors.New("config: unknown profile")

var catalog []Profile

// Catalog returns the built-in board profiles sorted by name.
func Catalog() []Profile {
	return slices.Clone(catalog)
}

// Names lists the built-in profile names.
func Names() []string {
	names := make([]string, len(catalog))
	for i, p := range catalog {
		names[i] = p.Name
	}
	return names
}

// Lookup returns a built-in profile by name, ignoring case.
func Lookup(name string) (Profile, error) {
	i := slices.IndexFunc(catalog, func(p Profile) bool {
		return p.Name == strings.ToLower(name)
	})
	if i < 0 {
		return Profile{}, ErrUnknownProfile
	}
	return catalog[i], nil
}

func init() {
	entries, err := rawProfiles.ReadDir("profiles")
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		raw, err := rawProfiles.ReadFile(path.Join("profiles", e.Name()))
		if err != nil {
			panic(err)
		}
		p, err := Load(bytes.NewReader(raw))
		if err != nil {
			panic(e.Name() + ": " + err.Error())
		}
		catalog = append(catalog, *p)
	}
	slices.SortFunc(catalog, func(a, b Profile) bool {
		return a.Name < b.Name
	})
}
