package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile overrides scraping behaviour from a YAML file.
//
//	user_agents:
//	  - "Mozilla/5.0 ..."
//	excluded_hosts:
//	  - youtube
//	  - wikipedia.org
//	feeds:
//	  - https://www.bing.com/news/search?format=rss&q=%s
type Profile struct {
	UserAgents    []string `yaml:"user_agents"`
	ExcludedHosts []string `yaml:"excluded_hosts"`
	Feeds         []string `yaml:"feeds"`
}

// LoadProfile reads a scrape profile from path.
func LoadProfile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read scrape profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("parse scrape profile %s: %w", path, err)
	}
	return p, nil
}

// Options converts the profile to config options. Empty sections leave the
// config untouched and feeds are appended to those already configured.
func (p Profile) Options(current AppConfig) []AppConfigOption {
	var opts []AppConfigOption
	if len(p.UserAgents) > 0 {
		opts = append(opts, WithUserAgents(p.UserAgents))
	}
	if len(p.ExcludedHosts) > 0 {
		opts = append(opts, WithExcludedHosts(p.ExcludedHosts))
	}
	if len(p.Feeds) > 0 {
		opts = append(opts, WithNewsFeeds(append(current.NewsFeeds(), p.Feeds...)))
	}
	return opts
}
