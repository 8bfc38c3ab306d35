package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineCountsTotalsAreDerived(t *testing.T) {
	counts := NewLineCounts()
	counts.Record(CFamily, Code)
	counts.Record(CFamily, Code)
	counts.Record(CFamily, Blank)
	counts.Record(Script, Comment)
	counts.RecordCounts(Shader, CategoryCounts{Doc: 2, Legal: 1})

	assert.Equal(t, int64(2), counts.Count(CFamily, Code))
	assert.Equal(t, int64(3), counts.Total(CFamily))
	assert.Equal(t, int64(1), counts.Total(Script))
	assert.Equal(t, int64(3), counts.Total(Shader))
	assert.Equal(t, int64(0), counts.Total(Stylesheet))
	assert.Equal(t, int64(7), counts.GrandTotal())
	assert.Equal(t, int64(2), counts.CategoryTotal(Code))
	assert.Equal(t, int64(2), counts.CategoryTotal(Doc))

	var sum int64
	for _, category := range Categories() {
		sum += counts.CategoryTotal(category)
	}
	assert.Equal(t, counts.GrandTotal(), sum)
}

func TestLineCountsZeroValue(t *testing.T) {
	var counts LineCounts
	counts.Record(BuildConfig, Test)
	assert.Equal(t, int64(1), counts.GrandTotal())
}

func TestLineCountsMerge(t *testing.T) {
	left := NewLineCounts()
	left.Record(CFamily, Code)
	right := NewLineCounts()
	right.Record(CFamily, Code)
	right.Record(Stylesheet, Wrap)

	left.Merge(right)
	left.Merge(nil)

	assert.Equal(t, int64(2), left.Count(CFamily, Code))
	assert.Equal(t, int64(1), left.Count(Stylesheet, Wrap))
	assert.Equal(t, int64(1), right.Count(CFamily, Code), "merge must not modify its argument")
}

func TestLineCountsJSONRoundTrip(t *testing.T) {
	counts := NewLineCounts()
	counts.RecordCounts(CFamily, CategoryCounts{Blank: 3, Legal: 2, Comment: 5, Doc: 1, Test: 4, Wrap: 6, Code: 7})
	counts.Record(Stylesheet, Comment)

	data, err := json.Marshal(counts)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Qt Stylesheet"`)
	assert.Contains(t, string(data), `"Total":28`)

	restored := NewLineCounts()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, *counts, *restored)
}

func TestLineCountsUnmarshalRejectsUnknownNames(t *testing.T) {
	restored := NewLineCounts()
	assert.Error(t, json.Unmarshal([]byte(`{"Fortran": {"Code": 1}}`), restored))
	assert.Error(t, json.Unmarshal([]byte(`{"C++": {"Misc": 1}}`), restored))
	assert.Error(t, json.Unmarshal([]byte(`{"C++": {"Code": -1}}`), restored))
}

func TestFileMetricsJSON(t *testing.T) {
	data, err := json.Marshal(FileMetrics{
		Path:     "libs/core/a.cpp",
		Language: CFamily,
		Counts:   CategoryCounts{Code: 2},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"path": "libs/core/a.cpp",
		"language": "C++",
		"counts": {"Blank": 0, "Legal": 0, "Comment": 0, "Doc": 0, "Test": 0, "Wrap": 0, "Code": 2, "Total": 2}
	}`, string(data))
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "Qt Stylesheet", Stylesheet.String())
	assert.Equal(t, "Doc", Doc.String())
	assert.Equal(t, "Category(42)", Category(42).String())

	language, err := ParseLanguage("CMake")
	require.NoError(t, err)
	assert.Equal(t, BuildConfig, language)

	category, err := ParseCategory("Wrap")
	require.NoError(t, err)
	assert.Equal(t, Wrap, category)
}
