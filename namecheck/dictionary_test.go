package namecheck

import "testing"

func TestDictionarySurnameShardLookup(t *testing.T) {
	ds := newTestDictionary(t)
	readings, ok, err := ds.SurnamesFor("山田")
	if err != nil {
		t.Fatalf("SurnamesFor: %v", err)
	}
	if !ok {
		t.Fatal("expected 山田 to be found")
	}
	if !contains(readings, "やまだ") {
		t.Errorf("readings = %v, want to contain やまだ", readings)
	}
}

func TestDictionaryMissingShardIsNotAnError(t *testing.T) {
	ds := newTestDictionary(t)
	readings, ok, err := ds.SurnamesFor("珍名字")
	if err != nil {
		t.Fatalf("SurnamesFor: %v", err)
	}
	if ok {
		t.Errorf("expected 珍名字 not to be found, got readings %v", readings)
	}
}

func TestDictionaryShardIsCachedAfterFirstLoad(t *testing.T) {
	ds := newTestDictionary(t)
	if _, _, err := ds.SurnamesFor("山田"); err != nil {
		t.Fatalf("SurnamesFor: %v", err)
	}
	if _, ok := ds.shards["5C71"]; !ok {
		t.Fatal("expected shard 5C71 to be cached after first load")
	}

	// A second lookup against the same shard is served from the cache.
	if _, _, err := ds.SurnamesFor("山田"); err != nil {
		t.Fatalf("second SurnamesFor: %v", err)
	}
}

func TestDictionaryGivenNameLookup(t *testing.T) {
	ds := newTestDictionary(t)
	readings, ok := ds.GivenNamesFor("太郎")
	if !ok || !contains(readings, "たろう") {
		t.Errorf("GivenNamesFor(太郎) = %v, %v", readings, ok)
	}
}

func TestDictionarySingleKanjiLookup(t *testing.T) {
	ds := newTestDictionary(t)
	readings, ok := ds.SingleKanjiFor("珍")
	if !ok || !contains(readings, "ちん") {
		t.Errorf("SingleKanjiFor(珍) = %v, %v", readings, ok)
	}
}
