// Package config implements the flat string->string configuration
// store every session, strategy, and stage reads from: typed accessors
// over a plain map, deferred registration of per-stage option
// descriptors, and a deterministic KEY=VALUE file format.
//
// No third-party config library matches this exact shape (a flat map
// with insertion-order serialization and a bespoke KEY=VALUE file
// grammar, not YAML/TOML/env-layered), so this package is hand-rolled
// over the standard library; see DESIGN.md for the justification.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Info describes a registered option: its key, default value, and
// help text. Stages call Register to publish their option table so
// Get can fall back to a sensible default and a help listing can be
// produced.
type Info struct {
	Key     string
	Default string
	Help    string
}

// Configuration is a flat string->string map with insertion order
// preserved for deterministic serialization, plus typed accessors and
// deferred option registration.
type Configuration struct {
	order    []string
	values   map[string]string
	registry map[string]Info
}

// New returns an empty Configuration.
func New() *Configuration {
	return &Configuration{
		values:   make(map[string]string),
		registry: make(map[string]Info),
	}
}

// Register records an option descriptor. Get falls back to info.Default
// when the key has not been explicitly Set. Registering the same key
// twice overwrites the earlier descriptor — stages are expected to
// register once during Alloc.
func (c *Configuration) Register(infos ...Info) {
	for _, info := range infos {
		c.registry[info.Key] = info
	}
}

// Set assigns key=value, recording insertion order the first time key
// is seen.
func (c *Configuration) Set(key, value string) {
	if _, exists := c.values[key]; !exists {
		c.order = append(c.order, key)
	}
	c.values[key] = value
}

// Get returns the string value for key: an explicit Set value if
// present, else the registered default, else "".
func (c *Configuration) Get(key string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	if info, ok := c.registry[key]; ok {
		return info.Default
	}
	return ""
}

// Has reports whether key has an explicit value or a registered default.
func (c *Configuration) Has(key string) bool {
	if _, ok := c.values[key]; ok {
		return true
	}
	_, ok := c.registry[key]
	return ok
}

// boolTrue and boolFalse recognize the case-insensitive token sets
// spec.md §4.1 names for the bool accessor.
var (
	boolTrue  = map[string]bool{"1": true, "true": true, "yes": true, "on": true}
	boolFalse = map[string]bool{"0": true, "false": true, "no": true, "off": true}
)

// Bool parses key as a boolean, recognizing 1/true/yes/on vs
// 0/false/no/off case-insensitively. Returns the fallback and false if
// the value is unrecognized, and the fallback and true if it is unset
// or blank.
func (c *Configuration) Bool(key string, fallback bool) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(c.Get(key)))
	if v == "" {
		return fallback, true
	}
	if boolTrue[v] {
		return true, true
	}
	if boolFalse[v] {
		return false, true
	}
	return fallback, false
}

// Int parses key as a base-10 integer. Errors propagate as a sentinel
// fallback value and an ok=false flag rather than a panic, matching
// spec.md §4.1's "errors propagate as a sentinel value and an error
// flag" rule.
func (c *Configuration) Int(key string, fallback int64) (int64, bool) {
	v := strings.TrimSpace(c.Get(key))
	if v == "" {
		return fallback, true
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback, false
	}
	return n, true
}

// Real parses key as a float64. A full parse or nothing — no partial
// fallback on malformed input.
func (c *Configuration) Real(key string, fallback float64) (float64, bool) {
	v := strings.TrimSpace(c.Get(key))
	if v == "" {
		return fallback, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, false
	}
	return f, true
}

// splitArray parses a comma- or whitespace-separated value.
func splitArray(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	var parts []string
	if strings.Contains(v, ",") {
		parts = strings.Split(v, ",")
	} else {
		parts = strings.Fields(v)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// ArrayLen returns the number of comma- or whitespace-separated items
// in key's value.
func (c *Configuration) ArrayLen(key string) int {
	return len(splitArray(c.Get(key)))
}

// ArrayItem returns the i-th comma- or whitespace-separated item in
// key's value. Returns an error if i is out of range.
func (c *Configuration) ArrayItem(key string, i int) (string, error) {
	items := splitArray(c.Get(key))
	if i < 0 || i >= len(items) {
		return "", fmt.Errorf("config: %s[%d]: index out of range (len %d)", key, i, len(items))
	}
	return items[i], nil
}

// LoadFile reads a KEY=VALUE configuration file: one assignment per
// line, '#' starts a comment, blank lines are skipped, later keys
// override earlier ones.
func (c *Configuration) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()
	return c.LoadReader(f)
}

// LoadReader parses the KEY=VALUE grammar from r.
func (c *Configuration) LoadReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			return fmt.Errorf("config: line %d: missing '=' in %q", lineNo, line)
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if key == "" {
			return fmt.Errorf("config: line %d: empty key", lineNo)
		}
		c.Set(key, val)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: reading: %w", err)
	}
	return nil
}

// Serialize renders the configuration deterministically in insertion
// order, one KEY=VALUE per line.
func (c *Configuration) Serialize() string {
	var b strings.Builder
	for _, k := range c.order {
		fmt.Fprintf(&b, "%s=%s\n", k, c.values[k])
	}
	return b.String()
}

// Keys returns the explicitly-set keys in insertion order.
func (c *Configuration) Keys() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}
