package search

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"meilisync/internal/items"
)

func TestSearchUsesConfiguredAttributes(t *testing.T) {
	engine := &fakeEngine{}
	m := newTestManager(engine)
	cfg := testConfig()
	cfg.AttributesToSearchOn = []string{"name", "overview"}
	m.Apply(context.Background(), cfg)

	name := "Alien"
	idx := engine.session(1).index
	if _, err := idx.AddDocuments(context.Background(), []items.Document{{GUID: "a", Name: &name}}); err != nil {
		t.Fatal(err)
	}

	res, err := Search(context.Background(), m, "Alien", QueryOptions{Sort: []string{"communityRating:desc"}})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0].GUID != "a" {
		t.Errorf("hits = %+v", res.Hits)
	}
	if !reflect.DeepEqual(idx.lastQuery.AttributesToSearchOn, []string{"name", "overview"}) {
		t.Errorf("AttributesToSearchOn = %v", idx.lastQuery.AttributesToSearchOn)
	}
	if idx.lastQuery.Limit != defaultQueryLimit {
		t.Errorf("Limit = %d", idx.lastQuery.Limit)
	}
}

func TestSearchRejectsUnknownSort(t *testing.T) {
	m := newTestManager(&fakeEngine{})
	m.Apply(context.Background(), testConfig())

	_, err := Search(context.Background(), m, "x", QueryOptions{Sort: []string{"name:asc"}})
	if !errors.Is(err, ErrInvalidSort) {
		t.Errorf("Search() error = %v, want ErrInvalidSort", err)
	}
}

func TestSearchUnavailable(t *testing.T) {
	m := newTestManager(&fakeEngine{})
	_, err := Search(context.Background(), m, "x", QueryOptions{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Search() error = %v, want ErrUnavailable", err)
	}
}
