// Package bots implements the page handlers of the individual bots.
//
// Each bot yields candidate file pages from a search or category, decides
// from the page source and a remote platform whether the file qualifies,
// and queues structured data statements describing it. Pages that do not
// qualify are reported with runner.Skip so the runner remembers them.
package bots
