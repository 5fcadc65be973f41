// Package profile stores what the assistant knows about its user: name,
// interests, learned facts and preferences, persisted as JSON.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// Profile is the serialized user record.
type Profile struct {
	Name             string            `json:"name"`
	Interests        []string          `json:"interests"`
	Facts            map[string]string `json:"facts"`
	Preferences      map[string]string `json:"preferences"`
	InteractionCount int               `json:"interaction_count"`
	LastSeen         time.Time         `json:"last_seen"`
}

// Context owns a Profile and its persistence. Safe for concurrent use.
type Context struct {
	mu      sync.Mutex
	profile Profile
	path    string
}

// Open loads (or creates) the profile persisted at path. An empty path keeps
// it in memory only.
func Open(path string) (*Context, error) {
	c := &Context{
		path: path,
		profile: Profile{
			Facts:       make(map[string]string),
			Preferences: make(map[string]string),
		},
	}
	if path == "" {
		return c, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if err := json.Unmarshal(data, &c.profile); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if c.profile.Facts == nil {
		c.profile.Facts = make(map[string]string)
	}
	if c.profile.Preferences == nil {
		c.profile.Preferences = make(map[string]string)
	}
	return c, nil
}

// Snapshot returns a copy of the current profile.
func (c *Context) Snapshot() Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.profile
	p.Interests = append([]string(nil), c.profile.Interests...)
	p.Facts = copyMap(c.profile.Facts)
	p.Preferences = copyMap(c.profile.Preferences)
	return p
}

// Touch records one interaction.
func (c *Context) Touch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile.InteractionCount++
	c.profile.LastSeen = time.Now()
	return c.saveLocked()
}

// SetName records the user's name.
func (c *Context) SetName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile.Name = strings.TrimSpace(name)
	return c.saveLocked()
}

// LearnFact stores a key/value fact about the user.
func (c *Context) LearnFact(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile.Facts[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	return c.saveLocked()
}

// AddInterest records an interest once.
func (c *Context) AddInterest(interest string) error {
	interest = strings.ToLower(strings.TrimSpace(interest))
	if interest == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, have := range c.profile.Interests {
		if have == interest {
			return nil
		}
	}
	c.profile.Interests = append(c.profile.Interests, interest)
	return c.saveLocked()
}

// Greeting returns a time-of-day greeting, personalized when the user's name
// is known.
func (c *Context) Greeting(now time.Time) string {
	c.mu.Lock()
	name := c.profile.Name
	c.mu.Unlock()

	var base string
	switch h := now.Hour(); {
	case h < 6:
		base = "Up late? Hello"
	case h < 12:
		base = "Good morning"
	case h < 18:
		base = "Good afternoon"
	default:
		base = "Good evening"
	}
	if name != "" {
		return fmt.Sprintf("%s, %s!", base, name)
	}
	return base + "!"
}

// Summary renders the profile as prompt context.
func (c *Context) Summary() string {
	p := c.Snapshot()
	var b strings.Builder
	if p.Name != "" {
		fmt.Fprintf(&b, "User name: %s\n", p.Name)
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n", strings.Join(p.Interests, ", "))
	}
	for k, v := range p.Facts {
		fmt.Fprintf(&b, "Fact: %s = %s\n", k, v)
	}
	return b.String()
}

func (c *Context) saveLocked() error {
	if c.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(c.profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
