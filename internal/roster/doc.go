// Package roster provides the data types shared by the scoutteam pipeline stages.
//
// A Fragment is the per-URL outcome of scraping one roster page: either the serialized
// player-entry markup or a descriptive error. An Athlete is one structured record produced
// by the extractor. Fragments and athletes live only for the duration of one pipeline run.
package roster
