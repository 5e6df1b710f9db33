package namecheck

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// newTestDictionary writes a small fixture dictionary to a temp
// directory and returns an opened DictionaryStore over it. Data is
// deliberately minimal: just enough to exercise exact lookup,
// cross-table lookup, sharding, and single-kanji decomposition.
func newTestDictionary(t *testing.T) *DictionaryStore {
	t.Helper()
	root := t.TempDir()

	nameReadings := nameReadingsFile{
		GivenNames: map[string][]string{
			"太郎": {"たろう"},
			"一郎": {"いちろう"},
			"次郎": {"じろう"},
			"花子": {"はなこ"},
			"健太": {"けんた"},
			"美咲": {"みさき"},
			"翔":  {"しょう"},
		},
		SingleKanji: map[string][]string{
			"珍": {"ちん"},
			"奇": {"き"},
			"名": {"な"},
		},
	}
	writeJSON(t, filepath.Join(root, "name_readings.json"), nameReadings)

	surnameShards := map[string]map[string][]string{
		"5C71": {"山田": {"やまだ"}},
		"4F50": {"佐藤": {"さとう"}},
		"6CB3": {"河野": {"こうの", "かわの"}},
		"5927": {"大野": {"おおの"}},
		"9234": {"鈴木": {"すずき"}},
		"9AD8": {"高橋": {"たかはし"}},
		"6E21": {"渡辺": {"わたなべ"}},
	}
	if err := os.MkdirAll(filepath.Join(root, "surnames"), 0o755); err != nil {
		t.Fatalf("mkdir surnames: %v", err)
	}
	for key, shard := range surnameShards {
		writeJSON(t, filepath.Join(root, "surnames", key+".json"), shard)
	}

	ds, err := NewDictionaryStore(root)
	if err != nil {
		t.Fatalf("NewDictionaryStore: %v", err)
	}
	return ds
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
}
