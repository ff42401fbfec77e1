/*
Package token implements fungible and unique assets.

A Mint describes an asset: its supply, decimals and the authorities that
may issue new units or freeze holdings. A TokenAccount holds units of one
mint for one owner. The owner may approve a delegate to move up to a given
amount on its behalf; the freeze authority of the mint may freeze an
account so that nothing moves out of it until it is thawed.

Every key holder has one associated token account per mint, at an address
derived from the owner and the mint. Programs use the same derivation, so a
derived authority can own token accounts just like a key holder.
*/
package token
