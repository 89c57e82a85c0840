// Package collector runs the keyword collection loop.
//
// Each iteration waits on the quota gate, fetches one page of search results,
// keeps statuses newer than the cursor, normalizes their text, appends the
// survivors to the sink, advances the cursor and then sleeps out the rest of
// the interval. The cursor starts at the snowflake epoch on every run unless
// a checkpoint manager is set.
package collector
