// Package mediawiki is a client for the MediaWiki Action API of Wikimedia
// Commons, covering the calls the bots need: login, page generators,
// page loading, structured data retrieval and wbeditentity edits.
//
// Requests go through a resty client. When OAuth 1.0a tokens are
// configured the underlying http.Client signs every request; otherwise the
// client logs in with a bot password and keeps the session cookies.
// Every request carries maxlag and is retried while the replicas lag.
package mediawiki
