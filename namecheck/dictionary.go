package namecheck

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unicode/utf8"
)

// nameReadingsFile is the on-disk shape of <root>/name_readings.json:
// the monolithic given-name and single-kanji-fallback tables. A
// "surnames" key may be present for compatibility with single-file
// deployments but is never required; the sharded layout is
// authoritative.
type nameReadingsFile struct {
	GivenNames  map[string][]string `json:"given_names"`
	SingleKanji map[string][]string `json:"single_kanji"`
}

// DictionaryStore provides lazy, cached access to kanji→readings data.
// Given-name and single-kanji tables are monolithic and loaded eagerly
// at construction; surname shards are loaded on first use and cached
// for the lifetime of the store. A missing shard file is cached as an
// empty mapping so repeated lookups never re-probe the filesystem; a
// malformed shard is a fatal error surfaced to the caller.
type DictionaryStore struct {
	root        string
	givenNames  map[string][]string
	singleKanji map[string][]string

	mu     sync.RWMutex
	shards map[string]map[string][]string
}

// NewDictionaryStore loads the monolithic given-name/single-kanji table
// from <root>/name_readings.json and returns a store ready for surname
// shard lookups against <root>/surnames.
func NewDictionaryStore(root string) (*DictionaryStore, error) {
	path := filepath.Join(root, "name_readings.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("namecheck: load name readings: %w", err)
	}

	var file nameReadingsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("namecheck: parse name readings: %w", err)
	}

	ds := &DictionaryStore{
		root:        root,
		givenNames:  file.GivenNames,
		singleKanji: file.SingleKanji,
		shards:      make(map[string]map[string][]string),
	}
	if ds.givenNames == nil {
		ds.givenNames = map[string][]string{}
	}
	if ds.singleKanji == nil {
		ds.singleKanji = map[string][]string{}
	}
	return ds, nil
}

// ShardCount reports how many surname shards are currently cached in
// memory. Intended for health/diagnostics reporting, not domain logic.
func (ds *DictionaryStore) ShardCount() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.shards)
}

// GivenNamesFor looks up kanji in the monolithic given-names table.
func (ds *DictionaryStore) GivenNamesFor(kanji string) ([]string, bool) {
	readings, ok := ds.givenNames[kanji]
	return readings, ok
}

// SingleKanjiFor looks up a single kanji scalar in the fallback table
// used for decomposition.
func (ds *DictionaryStore) SingleKanjiFor(kanji string) ([]string, bool) {
	readings, ok := ds.singleKanji[kanji]
	return readings, ok
}

// SurnamesFor looks up kanji in the sharded surname table, loading and
// caching the shard on first access. A missing shard is reported as
// (nil, false, nil); a corrupt shard is reported as a non-nil error.
func (ds *DictionaryStore) SurnamesFor(kanji string) ([]string, bool, error) {
	key, ok := shardKey(kanji)
	if !ok {
		return nil, false, nil
	}
	shard, err := ds.loadShard(key)
	if err != nil {
		return nil, false, err
	}
	readings, ok := shard[kanji]
	return readings, ok, nil
}

// shardKey computes the uppercase 4-digit-hex shard key for the first
// scalar of kanji.
func shardKey(kanji string) (string, bool) {
	r, size := utf8.DecodeRuneInString(kanji)
	if size == 0 {
		return "", false
	}
	return fmt.Sprintf("%04X", r), true
}

// loadShard returns the cached shard for key, loading it from disk on a
// cache miss. Readers that hit the cache never take the write lock.
func (ds *DictionaryStore) loadShard(key string) (map[string][]string, error) {
	ds.mu.RLock()
	shard, ok := ds.shards[key]
	ds.mu.RUnlock()
	if ok {
		return shard, nil
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if shard, ok := ds.shards[key]; ok {
		return shard, nil
	}

	shard, err := ds.readShardFile(key)
	if err != nil {
		return nil, err
	}
	ds.shards[key] = shard
	return shard, nil
}

func (ds *DictionaryStore) readShardFile(key string) (map[string][]string, error) {
	path := filepath.Join(ds.root, "surnames", key+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]string{}, nil
		}
		return nil, fmt.Errorf("namecheck: read surname shard %s: %w", key, err)
	}
	var shard map[string][]string
	if err := json.Unmarshal(data, &shard); err != nil {
		return nil, fmt.Errorf("namecheck: parse surname shard %s: %w", key, err)
	}
	if shard == nil {
		shard = map[string][]string{}
	}
	return shard, nil
}
