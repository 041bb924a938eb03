// Package runner drives a bot over the pages its generator yields.
//
// Each page passes through a fixed pipeline of steps:
//  1. cache: skip pages already remembered in the skip cache
//  2. filter: let the bot reject a page before it is loaded
//  3. load: fetch the wikitext, categories and file hash
//  4. claims: fetch the existing structured data statements
//  5. treat: let the bot queue new statements
//  6. save: submit the statements with wbeditentity
//
// A bot signals that a page does not qualify by returning an error built
// with Skip. Such pages are remembered in the cache so later runs do not
// look at them again. Errors wrapped with Transient make the runner pause
// before the next page.
//
// Pages are processed concurrently up to a limit, but edits always pass a
// shared rate limiter so the wiki sees at most one edit per throttle
// interval.
package runner
