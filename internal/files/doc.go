// Package files discovers raw quote files and works out which trading day
// each one holds.
//
// Discovery lists the regular files matching a glob pattern in a directory,
// sorted by name so that date-stamped files are processed in calendar
// order. TradingDay reads the day from a YYYY-MM-DD or YYYYMMDD token in the
// file name and falls back to the modification time in the venue time zone.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data")
//	raw, err := discovery.FindFilesByPattern("raw", "*.csv*")
//	for _, f := range raw {
//	    day, source := files.TradingDay(f, venue.Location)
//	}
package files
