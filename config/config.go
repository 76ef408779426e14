// Package config loads the instance manager's static per-process
// configuration: the bucket list, session lifetimes, and base URLs (§4.7).
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mediavault/instance"
	"mediavault/vaulterr"
)

// rawDuration lets operators write "30m"/"12h" in YAML while the program
// works in time.Duration.
type rawDuration struct {
	time.Duration
}

func (d *rawDuration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return vaulterr.IO.Wrap(err)
	}
	d.Duration = parsed
	return nil
}

// BucketConfig is one entry of the YAML bucket list.
type BucketConfig struct {
	ID              string      `yaml:"id"`
	Name            string      `yaml:"name"`
	Location        string      `yaml:"location"`
	Hidden          bool        `yaml:"hidden"`
	SessionLifetime rawDuration `yaml:"session_lifetime"`
	RandomizeSecret bool        `yaml:"randomize_secret"`
	BaseURL         string      `yaml:"base_url,omitempty"`
}

// File is the top-level shape of the configuration YAML document.
type File struct {
	Buckets []BucketConfig `yaml:"buckets"`
}

// defaultSessionLifetime is used when a bucket entry omits session_lifetime.
const defaultSessionLifetime = time.Hour

// Load reads and parses path into a File.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, vaulterr.IO.Wrap(err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, vaulterr.IO.Wrap(err)
	}
	return f, nil
}

// InstanceConfigs converts the parsed file into instance.Config values,
// validating that every bucket has a non-empty id and location and filling
// in defaultSessionLifetime where the YAML left it zero.
func (f File) InstanceConfigs() ([]instance.Config, error) {
	configs := make([]instance.Config, 0, len(f.Buckets))
	seen := make(map[string]bool, len(f.Buckets))

	for _, b := range f.Buckets {
		if b.ID == "" {
			return nil, vaulterr.IO.New("bucket entry missing id")
		}
		if seen[b.ID] {
			return nil, vaulterr.Duplicate.New("duplicate bucket id %q", b.ID)
		}
		seen[b.ID] = true

		if b.Location == "" {
			return nil, vaulterr.IO.New("bucket %q missing location", b.ID)
		}

		lifetime := b.SessionLifetime.Duration
		if lifetime == 0 {
			lifetime = defaultSessionLifetime
		}

		configs = append(configs, instance.Config{
			ID:              b.ID,
			Name:            b.Name,
			Location:        b.Location,
			Hidden:          b.Hidden,
			SessionLifetime: lifetime,
			RandomizeSecret: b.RandomizeSecret,
			BaseURL:         b.BaseURL,
		})
	}

	return configs, nil
}
