package msgcat

import (
    "embed"
    "errors"
    "fmt"
    "io/fs"
    "os"
    "path"
    "sort"
    "strings"
    "sync"
    "text/template"

    yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultFiles embed.FS

const defaultFile = "messages.en.yaml"

// Catalog holds text templates keyed by dotted paths, e.g. "status.player_turn".
// Embedded English defaults load first; YAML files in an override directory
// replace individual keys.
type Catalog struct {
    mu    sync.RWMutex
    data  map[string]string
    cache map[string]*template.Template
}

func New(overrideDir string) (*Catalog, error) {
    c := &Catalog{data: make(map[string]string), cache: make(map[string]*template.Template)}
    raw, err := fs.ReadFile(defaultFiles, defaultFile)
    if err != nil {
        return nil, fmt.Errorf("read embedded messages: %w", err)
    }
    flat, err := parseYAMLToFlat(raw)
    if err != nil {
        return nil, fmt.Errorf("parse embedded messages: %w", err)
    }
    c.merge(flat)
    if strings.TrimSpace(overrideDir) != "" {
        if err := c.LoadFS(os.DirFS(overrideDir)); err != nil {
            return nil, err
        }
    }
    return c, nil
}

// LoadFS applies every *.yaml / *.yml file at the root of fsys in name order.
// A key defined by two override files is an error.
func (c *Catalog) LoadFS(fsys fs.FS) error {
    entries, err := fs.ReadDir(fsys, ".")
    if err != nil {
        return fmt.Errorf("read override dir: %w", err)
    }
    var files []string
    for _, e := range entries {
        if e.IsDir() { continue }
        switch strings.ToLower(path.Ext(e.Name())) {
        case ".yaml", ".yml":
            files = append(files, e.Name())
        }
    }
    sort.Strings(files)

    seen := make(map[string]string)
    for _, name := range files {
        b, err := fs.ReadFile(fsys, name)
        if err != nil { return fmt.Errorf("read %s: %w", name, err) }
        flat, err := parseYAMLToFlat(b)
        if err != nil { return fmt.Errorf("parse %s: %w", name, err) }
        for k := range flat {
            if prev, ok := seen[k]; ok {
                return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
            }
            seen[k] = name
        }
        c.merge(flat)
    }
    return nil
}

func (c *Catalog) merge(flat map[string]string) {
    c.mu.Lock()
    defer c.mu.Unlock()
    for k, v := range flat {
        c.data[k] = v
        delete(c.cache, k)
    }
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
    var m map[string]any
    if err := yaml.Unmarshal(b, &m); err != nil {
        return nil, err
    }
    flat := make(map[string]string)
    if err := flattenStrings(m, "", flat); err != nil {
        return nil, err
    }
    return flat, nil
}

func flattenStrings(src any, prefix string, out map[string]string) error {
    switch v := src.(type) {
    case map[string]any:
        for k, vv := range v {
            key := k
            if prefix != "" { key = prefix + "." + k }
            if err := flattenStrings(vv, key, out); err != nil { return err }
        }
        return nil
    case string:
        if prefix == "" { return errors.New("string value without key prefix") }
        out[prefix] = v
        return nil
    case nil:
        return nil
    default:
        return fmt.Errorf("unsupported value at %s: %T", prefix, v)
    }
}

// Has reports whether key is defined.
func (c *Catalog) Has(key string) bool {
    c.mu.RLock()
    defer c.mu.RUnlock()
    _, ok := c.data[strings.TrimSpace(key)]
    return ok
}

// Keys lists every defined key in order.
func (c *Catalog) Keys() []string {
    c.mu.RLock()
    keys := make([]string, 0, len(c.data))
    for k := range c.data {
        keys = append(keys, k)
    }
    c.mu.RUnlock()
    sort.Strings(keys)
    return keys
}

// Render executes the template for key. Unknown keys and missing fields
// are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
    key = strings.TrimSpace(key)
    t, err := c.template(key)
    if err != nil { return "", err }
    var b strings.Builder
    if err := t.Execute(&b, data); err != nil { return "", err }
    return b.String(), nil
}

// Text renders key or returns fallback when rendering fails.
func (c *Catalog) Text(key string, data any, fallback string) string {
    if c == nil { return fallback }
    s, err := c.Render(key, data)
    if err != nil { return fallback }
    return s
}

func (c *Catalog) template(key string) (*template.Template, error) {
    c.mu.RLock()
    t, ok := c.cache[key]
    tpl, defined := c.data[key]
    c.mu.RUnlock()
    if ok { return t, nil }
    if !defined || strings.TrimSpace(tpl) == "" {
        return nil, fmt.Errorf("template not found: %s", key)
    }
    t, err := template.New(key).Option("missingkey=error").Parse(tpl)
    if err != nil { return nil, fmt.Errorf("parse template %s: %w", key, err) }
    c.mu.Lock()
    c.cache[key] = t
    c.mu.Unlock()
    return t, nil
}
