/*
Package staking locks unique assets of a verified collection in place.

Staking an asset creates a StakeRecord at an address derived from the mint
and the staking configuration. The owner approves the record address as
the delegate of its token account, and the record then freezes the account
through the metadata program, so the owner cannot move the asset until it
is unstaked. Each owner has a UserAccount counting its active stakes,
capped by the singleton StakeConfig.
*/
package staking
