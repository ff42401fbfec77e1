/*
Package app contains the pieces that turn handlers into an application:
decorator chains, the message router, genesis loading and the Runner
that executes transactions block by block against a committed store.
*/
package app
