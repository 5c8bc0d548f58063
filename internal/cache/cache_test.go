package cache

import (
	"testing"
	"time"
)

func TestKey_SensitiveToEveryField(t *testing.T) {
	base := Key("openai", "gpt-4o-mini", "systeem", []string{"user\x00vraag"})

	if base != Key("openai", "gpt-4o-mini", "systeem", []string{"user\x00vraag"}) {
		t.Error("identical requests must produce identical keys")
	}

	variants := []string{
		Key("anthropic", "gpt-4o-mini", "systeem", []string{"user\x00vraag"}),
		Key("openai", "ander-model", "systeem", []string{"user\x00vraag"}),
		Key("openai", "gpt-4o-mini", "ander systeem", []string{"user\x00vraag"}),
		Key("openai", "gpt-4o-mini", "systeem", []string{"user\x00andere vraag"}),
		Key("openai", "gpt-4o-mini", "systeem", []string{"user\x00vraag", "user\x00extra"}),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with the base key", i)
		}
	}
}

func TestMemoryCache_Roundtrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("expected a miss on an empty cache")
	}

	if err := c.Set("k", []byte("waarde"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "waarde" {
		t.Errorf("expected waarde, got %q (found=%v)", got, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected a miss after delete")
	}
}

func TestDiskCache_Roundtrip(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("waarde"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found := c.Get("k")
	if !found || string(got) != "waarde" {
		t.Errorf("expected waarde, got %q (found=%v)", got, found)
	}
}

func TestDiskCache_ExpiredEntryDropped(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("oud"), -time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected an expired entry to miss")
	}
	// The stale file is removed on read.
	if _, found := c.Get("k"); found {
		t.Error("expected the stale file to stay gone")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	// A previous run left an entry on disk.
	disk := NewDiskCache(dir, time.Minute)
	if err := disk.Set("k", []byte("van schijf"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	c := NewLayeredCache(time.Minute, dir, time.Minute)
	got, found := c.Get("k")
	if !found || string(got) != "van schijf" {
		t.Fatalf("expected the disk entry, got %q (found=%v)", got, found)
	}

	// After promotion a memory hit works even when the file disappears.
	if err := disk.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get("k"); !found {
		t.Error("expected a memory hit after promotion")
	}
}
