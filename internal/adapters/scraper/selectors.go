package scraper

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"

	"stream-resolver/pkg/log"
)

// ListingRules describes where the top 10 row lives in the listing markup.
type ListingRules struct {
	// Container narrows the search; when it matches nothing the whole
	// document is scanned.
	Container string
	// Item matches one entry of the row.
	Item string
	// IDAttr holds the numeric title id on the item element.
	IDAttr string
	// ImageAttrs are tried in order on the item's images.
	ImageAttrs []string
}

// DefaultListingRules matches the upstream markup as of this writing.
func DefaultListingRules() ListingRules {
	return ListingRules{
		Container:  "#top10",
		Item:       ".top10-post",
		IDAttr:     "data-post",
		ImageAttrs: []string{"data-src"},
	}
}

// Validate checks that every selector compiles.
func (r ListingRules) Validate() error {
	if r.Item == "" || r.IDAttr == "" || len(r.ImageAttrs) == 0 {
		return errors.New("listing rules: item, id_attr and image_attrs are required")
	}
	if r.Container != "" {
		if _, err := cascadia.Compile(r.Container); err != nil {
			return fmt.Errorf("listing rules: container %q: %w", r.Container, err)
		}
	}
	if _, err := cascadia.Compile(r.Item); err != nil {
		return fmt.Errorf("listing rules: item %q: %w", r.Item, err)
	}
	for _, attr := range r.ImageAttrs {
		if _, err := cascadia.Compile(imageSelector(attr)); err != nil {
			return fmt.Errorf("listing rules: image attr %q: %w", attr, err)
		}
	}
	return nil
}

func imageSelector(attr string) string {
	return "img[" + attr + "]"
}

// SelectorConfig holds the listing rules, optionally hot-reloaded from a
// YAML file.
type SelectorConfig struct {
	mu          sync.RWMutex
	rules       ListingRules
	filePath    string
	lastModTime time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

// rawConfig represents the YAML structure.
type rawConfig struct {
	Top10 struct {
		Container  string   `yaml:"container"`
		Item       string   `yaml:"item"`
		IDAttr     string   `yaml:"id_attr"`
		ImageAttrs []string `yaml:"image_attrs"`
	} `yaml:"top10"`
}

// NewStaticSelectors returns a config that never reloads.
func NewStaticSelectors(rules ListingRules) *SelectorConfig {
	return &SelectorConfig{rules: rules}
}

// LoadSelectors reads rules from filePath and polls it for changes. A
// missing file starts from DefaultListingRules and is picked up once it
// appears; an invalid file is an error.
func LoadSelectors(filePath string) (*SelectorConfig, error) {
	c := &SelectorConfig{
		rules:    DefaultListingRules(),
		filePath: filePath,
		stop:     make(chan struct{}),
	}

	if err := c.reload(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		log.GlobalWarn("selectors file missing, using defaults", "path", filePath)
	}

	go c.watch(10 * time.Second)
	return c, nil
}

// Rules returns the current rules (thread-safe).
func (c *SelectorConfig) Rules() ListingRules {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r := c.rules
	r.ImageAttrs = append([]string(nil), c.rules.ImageAttrs...)
	return r
}

// Close stops the file watcher.
func (c *SelectorConfig) Close() {
	if c.stop == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

// reload reads the file. Fields left empty keep their default; a file
// that yields invalid rules is rejected and the previous rules stay.
func (c *SelectorConfig) reload() error {
	info, err := os.Stat(c.filePath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return err
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse %s: %w", c.filePath, err)
	}

	rules := DefaultListingRules()
	if raw.Top10.Container != "" {
		rules.Container = raw.Top10.Container
	}
	if raw.Top10.Item != "" {
		rules.Item = raw.Top10.Item
	}
	if raw.Top10.IDAttr != "" {
		rules.IDAttr = raw.Top10.IDAttr
	}
	if len(raw.Top10.ImageAttrs) > 0 {
		rules.ImageAttrs = raw.Top10.ImageAttrs
	}
	if err := rules.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.rules = rules
	c.lastModTime = info.ModTime()
	c.mu.Unlock()
	return nil
}

// watch polls the file's modification time and reloads on change.
func (c *SelectorConfig) watch(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}

		info, err := os.Stat(c.filePath)
		if err != nil {
			continue
		}
		c.mu.RLock()
		changed := info.ModTime().After(c.lastModTime)
		c.mu.RUnlock()
		if !changed {
			continue
		}

		if err := c.reload(); err != nil {
			log.GlobalError("selectors reload failed, keeping previous rules", "path", c.filePath, "error", err)
			c.mu.Lock()
			c.lastModTime = info.ModTime()
			c.mu.Unlock()
			continue
		}
		log.GlobalInfo("selectors reloaded", "path", c.filePath)
	}
}
