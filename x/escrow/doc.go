/*
Package escrow implements an atomic swap of two assets between a maker and
a taker that do not trust each other.

The maker opens an escrow: a record stating the asset it offers (mint A),
the asset it wants (mint B) and the amount of B it expects. The offered
units are deposited in a vault, the associated token account of the escrow
record itself. The escrow address is derived from the maker and a maker
chosen seed, so only this package can sign for it and move the vault.

Any taker can redeem the offer by paying the expected amount of B to the
maker; in the same transaction the whole vault goes to the taker and both
the vault and the escrow record are closed, their rent deposits going to
the taker. Until then the maker may take the deposit back with a refund.
Redemption and refund both destroy the record, so at most one of them ever
succeeds.
*/
package escrow
