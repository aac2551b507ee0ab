/*
Package dyndns keeps DNS A records pointed at the caller's current public
IPv4 address.

Usage will always start with [New],
which returns a configured *Client.
New requires a dot-terminated domain, the record names to keep in sync,
and a [Provider] registered through an option such as [UsingGandi].
Each [Client.Run] pass discovers the desired IP, walks the NS delegation to
find the domain's authoritative server, reads the current record values
directly from it, and writes through the provider only when they differ.
Additional client configuration options are listed in the docs for New.
*/
package dyndns
