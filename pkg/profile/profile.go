// Package profile loads named report profiles: reusable YAML bundles of the
// filter parameters a report or chart run needs.
package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/finscope/finscope/pkg/filter"
	"github.com/finscope/finscope/pkg/models"
)

// Profile is one named filter bundle. Dates use the upstream calendar-date
// format; empty fields mean "no constraint". Cumulative stays a pointer so
// an omitted field is distinguishable from an explicit false and does not
// override command defaults.
type Profile struct {
	Name               string   `yaml:"name"`
	Start              string   `yaml:"start"`
	End                string   `yaml:"end"`
	AccountIDs         []string `yaml:"accounts"`
	ExcludeCategoryIDs []string `yaml:"exclude_categories"`
	Cumulative         *bool    `yaml:"cumulative"`
	Calc               string   `yaml:"calc"`
}

// File is a profiles document.
type File struct {
	Profiles []Profile `yaml:"profiles"`
}

// Load reads a profiles file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(f.Profiles) == 0 {
		return nil, fmt.Errorf("profiles file has no profiles")
	}
	for i, p := range f.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile %d has no name", i+1)
		}
	}
	return &f, nil
}

// Get returns the profile called name.
func (f *File) Get(name string) (Profile, error) {
	for _, p := range f.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("no profile named %q", name)
}

// FilterParams converts the profile into filter parameters, parsing dates.
func (p Profile) FilterParams() (filter.Params, error) {
	params := filter.Params{
		AccountIDs:         p.AccountIDs,
		ExcludeCategoryIDs: p.ExcludeCategoryIDs,
	}
	if p.Start != "" {
		start, err := models.ParseDate(p.Start)
		if err != nil {
			return filter.Params{}, fmt.Errorf("profile %s: bad start date: %w", p.Name, err)
		}
		params.Start = start
	}
	if p.End != "" {
		end, err := models.ParseDate(p.End)
		if err != nil {
			return filter.Params{}, fmt.Errorf("profile %s: bad end date: %w", p.Name, err)
		}
		params.End = end
	}
	return params, nil
}

// Print writes a short human-readable summary to stdout.
func (f *File) Print() {
	for i, p := range f.Profiles {
		fmt.Printf("[%d] name=%s start=%s end=%s accounts=%d excluded=%d\n",
			i+1, p.Name, p.Start, p.End, len(p.AccountIDs), len(p.ExcludeCategoryIDs))
	}
}
