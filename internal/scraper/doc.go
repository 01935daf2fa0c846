// Package scraper provides HTTP fetching and HTML parsing for university roster pages.
//
// The scraper fetches each roster URL, locates the Sidearm roster-players container
// (ul.sidearm-roster-players) and serializes every player entry (li.sidearm-roster-player)
// found inside it. Each URL yields exactly one fragment: the joined player markup, or a
// descriptive error when the page could not be fetched or lacks the expected structure.
// Failures are per URL and never abort the rest of the batch.
package scraper
