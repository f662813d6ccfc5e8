package msgcat

import (
    "strings"
    "testing"
    "testing/fstest"
)

func TestEmbeddedDefaults(t *testing.T) {
    c, err := New("")
    if err != nil { t.Fatalf("New: %v", err) }
    for _, key := range []string{"status.player_turn", "status.ai_turn", "game.title.chinese_checkers", "tui.help"} {
        if !c.Has(key) { t.Fatalf("missing key %s", key) }
    }
    got, err := c.Render("game.caption", map[string]string{"Title": "Chess", "Difficulty": "hard"})
    if err != nil || got != "Chess · hard" { t.Fatalf("caption = %q, %v", got, err) }
}

func TestMissingDataAndKeys(t *testing.T) {
    c, _ := New("")
    if _, err := c.Render("game.caption", map[string]string{"Title": "Chess"}); err == nil {
        t.Fatalf("expected missing field error")
    }
    if _, err := c.Render("nope", nil); err == nil || !strings.Contains(err.Error(), "template not found") {
        t.Fatalf("err = %v", err)
    }
    if got := c.Text("nope", nil, "fallback"); got != "fallback" { t.Fatalf("Text = %q", got) }
    var nilCat *Catalog
    if got := nilCat.Text("status.draw", nil, "Draw"); got != "Draw" { t.Fatalf("nil catalog Text = %q", got) }
}

func TestOverrides(t *testing.T) {
    c, _ := New("")
    // warm the template cache so the override has to evict it
    if got := c.Text("status.win", nil, ""); got != "You win!" { t.Fatalf("default = %q", got) }

    err := c.LoadFS(fstest.MapFS{
        "a.yaml":    {Data: []byte("status:\n  win: \"¡Ganaste!\"\n")},
        "b.yml":     {Data: []byte("extra:\n  hello: \"hola {{.Name}}\"\n")},
        "notes.txt": {Data: []byte("ignored")},
    })
    if err != nil { t.Fatalf("LoadFS: %v", err) }
    if got := c.Text("status.win", nil, ""); got != "¡Ganaste!" { t.Fatalf("override = %q", got) }
    if got, _ := c.Render("extra.hello", map[string]string{"Name": "Ana"}); got != "hola Ana" { t.Fatalf("extra = %q", got) }

    err = c.LoadFS(fstest.MapFS{
        "a.yaml": {Data: []byte("status:\n  win: one\n")},
        "b.yaml": {Data: []byte("status:\n  win: two\n")},
    })
    if err == nil || !strings.Contains(err.Error(), "duplicate override key") { t.Fatalf("err = %v", err) }

    if err := c.LoadFS(fstest.MapFS{"bad.yaml": {Data: []byte("status:\n  win: [1, 2]\n")}}); err == nil {
        t.Fatalf("expected error for non-string leaf")
    }
}
