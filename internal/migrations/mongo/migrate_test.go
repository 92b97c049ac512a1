package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func uniqueIndex(t *testing.T, name string) bson.D {
	t.Helper()
	def, ok := collections()[name]
	if !ok {
		t.Fatalf("collection %s not migrated", name)
	}
	for _, idx := range def.Indexes {
		if idx.Options != nil && idx.Options.Unique != nil && *idx.Options.Unique {
			return idx.Keys.(bson.D)
		}
	}
	t.Fatalf("collection %s has no unique index", name)
	return nil
}

func TestSlotsUniqueKey(t *testing.T) {
	keys := uniqueIndex(t, SlotsCollection)
	want := []string{"date", "time", "category"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i, k := range want {
		if keys[i].Key != k {
			t.Errorf("key %d = %s, want %s", i, keys[i].Key, k)
		}
	}
}

func TestNotificationsUniqueKey(t *testing.T) {
	keys := uniqueIndex(t, NotificationsCollection)
	want := []string{"event_id", "audience", "recipient_id"}
	for i, k := range want {
		if keys[i].Key != k {
			t.Errorf("key %d = %s, want %s", i, keys[i].Key, k)
		}
	}
}

func TestEveryCollectionHasAValidator(t *testing.T) {
	for name, def := range collections() {
		if _, ok := def.Validator["$jsonSchema"]; !ok {
			t.Errorf("%s has no $jsonSchema validator", name)
		}
	}
}
