// Package ofi turns a symbol's raw quote events into the order flow
// imbalance series and its regressions.
//
// # Pipeline
//
// For one symbol on one trading day:
//
//	events ─BuildTOB→ []TOBRow ─Compute→ []Row ─Normalize→ []Row ─RegressDay→ DayResult
//	                        └─RegressHalfHours (10s resample, 30m bins)→ []HalfHourResult
//
// BuildTOB places the quotes on a regular grid spanning the regular session
// and carries the last quote forward. Compute applies the per-side OFI
// classification between consecutive grid points and adds depth, mid and
// the mid change in basis points. Normalize divides OFI by a trailing mean
// of depth.
//
// # Sign Convention
//
// Positive OFI is buying pressure. For each side the contribution depends
// only on the direction of the price move:
//
//	side  price up      price down    unchanged
//	bid   +size         -prev size    +Δsize
//	ask   -prev size    -size         -Δsize
//
// The contributions of both sides are summed. The first grid point has no
// predecessor and its OFI is zero.
//
// # Missing Values
//
// Missing values are NaN. d_mid_bps is missing on the first row and
// whenever its magnitude exceeds the outlier cutoff; depth_roll is missing
// until enough depths are in the window; normalized_ofi is missing
// wherever depth_roll is missing or zero.
package ofi
