/*
Package dnscf keeps DNS hostnames pointed at a periodically refreshed list of recommended IPv4 addresses.

Usage will always start with [dnscf.New],
which takes the hostnames to maintain and returns the Client implementation.
New requires a [Provider] implementation for a DNS provider, usually registered with [UsingCloudflare].

A run fetches the candidate list once from a [Resolver],
finds the zone which owns each hostname,
and overwrites the hostname's existing A records with candidates, pairing them by position.
Records are never created or deleted.
The outcome of every update is collected into a [Report],
which is handed to a [Notifier] when one is configured.
*/
package dnscf
