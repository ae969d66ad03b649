package persist

import (
	"strings"
	"time"
)

const (
	defaultNamePrefix  = "firecrawl_result_"
	scrapeNamePrefix   = "scrape_"
	crawlNamePrefix    = "crawl_"
	searchNamePrefix   = "search_"
	extractNamePrefix  = "extract_"
	timestampLayout    = "20060102_150405"
	httpsSchemePrefix  = "https://"
	httpSchemePrefix   = "http://"
	sanitizedSeparator = "_"
)

// DefaultName derives a timestamped artifact name. Two invocations one
// second apart never collide.
func DefaultName(now time.Time) string {
	return defaultNamePrefix + now.Format(timestampLayout)
}

// NameForScrape derives an artifact name from a scraped URL.
func NameForScrape(url string) string {
	return scrapeNamePrefix + sanitizeURL(url)
}

// NameForCrawl derives an artifact name from a crawled URL.
func NameForCrawl(url string) string {
	return crawlNamePrefix + sanitizeURL(url)
}

// NameForSearch derives an artifact name from a search query.
func NameForSearch(query string) string {
	return searchNamePrefix + strings.ReplaceAll(query, " ", sanitizedSeparator)
}

// NameForExtract derives a timestamped artifact name for extraction results.
func NameForExtract(now time.Time) string {
	return extractNamePrefix + now.Format(timestampLayout)
}

// sanitizeURL strips the scheme and flattens path and host separators so the
// URL can serve as a file name.
func sanitizeURL(url string) string {
	sanitized := strings.TrimPrefix(url, httpsSchemePrefix)
	sanitized = strings.TrimPrefix(sanitized, httpSchemePrefix)
	sanitized = strings.ReplaceAll(sanitized, "/", sanitizedSeparator)
	sanitized = strings.ReplaceAll(sanitized, ".", sanitizedSeparator)
	return sanitized
}
