/*
Package metadata describes unique assets and their collections.

A unique asset is a token mint with zero decimals and a supply of one.
Its Metadata record, stored at an address derived from the mint, names the
collection the asset claims to belong to; the claim only counts once the
update authority of the collection verified it. The MasterEdition record
takes over the mint and freeze authorities of the mint, so no further units
can be issued, and lets the delegate of the holder's token account freeze
and thaw that account through the edition's derived authority.
*/
package metadata
