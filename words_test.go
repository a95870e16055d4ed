/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCategoriesAreSorted(t *testing.T) {
	want := []string{
		"Animals",
		"Celebrities",
		"Countries",
		"Foods",
		"Locations",
		"Objects",
		"TV Shows",
	}

	if diff := cmp.Diff(want, categories()); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

func TestEveryCategoryHasWords(t *testing.T) {
	for name, words := range wordLists {
		assert.NotEmpty(t, words, "category %q has no words", name)

		seen := make(map[string]bool, len(words))
		for _, word := range words {
			assert.NotEmpty(t, word, "category %q contains an empty word", name)
			assert.False(t, seen[word], "category %q repeats %q", name, word)
			seen[word] = true
		}
	}
}
