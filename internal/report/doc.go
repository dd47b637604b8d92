// Package report renders validation results for humans.
//
// The console layout is a fixed, line-oriented format: a banner before the
// run, then a results block with one numbered section per non-empty
// severity bucket and a summary line. When a report file is requested the
// same text is written to it behind a short metadata header:
//
//	# Enterprise DAB Validation Report
//	# Generated: 2026-10-17 09:30:05
//	# Project Path: ./my-bundle
//
// A file that cannot be created never fails the run; output degrades to
// console only.
package report
