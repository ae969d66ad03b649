package persist_test

import (
	"testing"
	"time"

	"github.com/pimcabanlit/firecrawl-cli/internal/persist"
)

func TestDefaultNameDistinctPerSecond(t *testing.T) {
	firstInstant := time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)
	secondInstant := firstInstant.Add(time.Second)

	firstName := persist.DefaultName(firstInstant)
	secondName := persist.DefaultName(secondInstant)

	if firstName == secondName {
		t.Fatalf("names one second apart must differ: %q", firstName)
	}
	if firstName != "firecrawl_result_20250314_092653" {
		t.Fatalf("unexpected default name: %q", firstName)
	}
}

func TestDerivedNames(t *testing.T) {
	testCases := []struct {
		name     string
		actual   string
		expected string
	}{
		{
			name:     "scrape_url",
			actual:   persist.NameForScrape("https://example.com/docs/page.html"),
			expected: "scrape_example_com_docs_page_html",
		},
		{
			name:     "crawl_url_http",
			actual:   persist.NameForCrawl("http://example.com/"),
			expected: "crawl_example_com_",
		},
		{
			name:     "search_query_spaces",
			actual:   persist.NameForSearch("Python tutorials"),
			expected: "search_Python_tutorials",
		},
		{
			name:     "extract_timestamp",
			actual:   persist.NameForExtract(time.Date(2025, time.March, 14, 9, 26, 53, 0, time.UTC)),
			expected: "extract_20250314_092653",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if testCase.actual != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, testCase.actual)
			}
		})
	}
}
