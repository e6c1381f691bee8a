// Package report reads and writes the native line coverage report.
//
// The report is a sequence of file blocks:
//
//	FILE: <path>
//	RES: <one char per source line: c|p covered, u uncovered, other unknown>
//	PROF: <deep0>,<shallow0>,<deep1>,<shallow1>,...
//
// Parsing builds a fresh Index every time; callers swap it in only after
// Parse returns without error, so a broken report never damages data that
// was loaded earlier.
package report
